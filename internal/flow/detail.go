package flow

import (
	"context"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/model"
	"github.com/nickheyer/crawlkit/internal/rule"
)

// DetailResult carries exactly one populated field, chosen by the owning
// rule's Meta.MediaType.
type DetailResult struct {
	Book  *model.BookDetail
	Video *model.VideoDetail
	Audio *model.AudioDetail
	Manga *model.MangaDetail
}

// RunDetail seeds ctx's "detail_url" variable, fetches Detail's page, and
// walks Detail.Fields' populated union member into a DetailResult. This
// generalizes this stack's own Book-only detail executor (title/author
// required, cover/intro optional, chapters a list-then-leaves composite) to
// all four media kinds named in r.Meta.MediaType, nesting an episode list
// one level deeper under play lines for Video/Manga and keeping Audio's
// track list flat like Book's chapters.
func RunDetail(goctx context.Context, r *rule.Rule, detailURL string, ctx *flowctx.Context) (*DetailResult, error) {
	goctx, cancel, mon, err := watchLimits(goctx, r)
	if err != nil {
		return nil, err
	}
	defer cancel()

	ctx.Set("detail_url", detailURL)
	html, err := fetchPage(goctx, r.Detail, ctx)
	if err != nil {
		return nil, err
	}
	if verr := mon.Check(); verr != nil {
		return nil, verr
	}

	switch r.Meta.MediaType {
	case rule.MediaBook:
		fields := r.Detail.Fields.Book
		if fields == nil {
			return nil, crawlerr.InvalidFieldMapping("detail.fields.book", "book")
		}
		d, err := buildBookDetail(goctx, fields, html, ctx)
		if err != nil {
			return nil, err
		}
		return &DetailResult{Book: d}, nil

	case rule.MediaVideo:
		fields := r.Detail.Fields.Video
		if fields == nil {
			return nil, crawlerr.InvalidFieldMapping("detail.fields.video", "video")
		}
		d, err := buildVideoDetail(goctx, fields, html, ctx)
		if err != nil {
			return nil, err
		}
		return &DetailResult{Video: d}, nil

	case rule.MediaAudio:
		fields := r.Detail.Fields.Audio
		if fields == nil {
			return nil, crawlerr.InvalidFieldMapping("detail.fields.audio", "audio")
		}
		d, err := buildAudioDetail(goctx, fields, html, ctx)
		if err != nil {
			return nil, err
		}
		return &DetailResult{Audio: d}, nil

	case rule.MediaManga:
		fields := r.Detail.Fields.Manga
		if fields == nil {
			return nil, crawlerr.InvalidFieldMapping("detail.fields.manga", "manga")
		}
		d, err := buildMangaDetail(goctx, fields, html, ctx)
		if err != nil {
			return nil, err
		}
		return &DetailResult{Manga: d}, nil

	default:
		return nil, crawlerr.InvalidConfigValue("meta.mediaType", string(r.Meta.MediaType))
	}
}
