package flow

import (
	"context"

	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/model"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

func buildBookDetail(goctx context.Context, f *rule.BookFields, html value.Value, ctx *flowctx.Context) (*model.BookDetail, error) {
	title, err := extractRequiredString(goctx, f.Title, html, ctx, "title")
	if err != nil {
		return nil, err
	}
	author, err := extractRequiredString(goctx, f.Author, html, ctx, "author")
	if err != nil {
		return nil, err
	}
	return &model.BookDetail{
		Title:    title,
		Author:   author,
		Cover:    extractOptionalString(goctx, f.Cover, html, ctx),
		Intro:    extractOptionalString(goctx, f.Intro, html, ctx),
		Chapters: toChapterItems(extractListEntries(goctx, f.Chapters, html, ctx)),
	}, nil
}

func buildVideoDetail(goctx context.Context, f *rule.VideoFields, html value.Value, ctx *flowctx.Context) (*model.VideoDetail, error) {
	title, err := extractRequiredString(goctx, f.Title, html, ctx, "title")
	if err != nil {
		return nil, err
	}
	return &model.VideoDetail{
		Title:     title,
		Cover:     extractOptionalString(goctx, f.Cover, html, ctx),
		Intro:     extractOptionalString(goctx, f.Intro, html, ctx),
		PlayLines: extractPlayLines(goctx, f.PlayLines, html, ctx),
	}, nil
}

func buildAudioDetail(goctx context.Context, f *rule.AudioFields, html value.Value, ctx *flowctx.Context) (*model.AudioDetail, error) {
	title, err := extractRequiredString(goctx, f.Title, html, ctx, "title")
	if err != nil {
		return nil, err
	}
	return &model.AudioDetail{
		Title:  title,
		Cover:  extractOptionalString(goctx, f.Cover, html, ctx),
		Intro:  extractOptionalString(goctx, f.Intro, html, ctx),
		Tracks: toTrackItems(extractListEntries(goctx, f.Tracks, html, ctx)),
	}, nil
}

func buildMangaDetail(goctx context.Context, f *rule.MangaFields, html value.Value, ctx *flowctx.Context) (*model.MangaDetail, error) {
	title, err := extractRequiredString(goctx, f.Title, html, ctx, "title")
	if err != nil {
		return nil, err
	}
	return &model.MangaDetail{
		Title:     title,
		Cover:     extractOptionalString(goctx, f.Cover, html, ctx),
		Intro:     extractOptionalString(goctx, f.Intro, html, ctx),
		PlayLines: extractPlayLines(goctx, f.PlayLines, html, ctx),
	}, nil
}
