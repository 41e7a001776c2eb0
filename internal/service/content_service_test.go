package service

import (
	"CommandCenter/internal/api/dto"
	"CommandCenter/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContentService(repo *memContentRepo) ContentService {
	return NewContentService(repo, repo)
}

func TestCreateDraft(t *testing.T) {
	repo := newMemContentRepo()
	svc := newContentService(repo)

	res, err := svc.CreateDraft(context.Background(), 1, &dto.CreateContentDTO{
		Title:       "Spring drop",
		Body:        "New colors are here",
		Platform:    "INSTAGRAM",
		ContentType: "IMAGE",
	})
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusDraft), res.Status)
	assert.Equal(t, "INSTAGRAM", res.Platform)
	assert.Equal(t, uint64(1), res.OwnerID)

	_, err = svc.CreateDraft(context.Background(), 1, &dto.CreateContentDTO{
		Title: "x", Body: "y", Platform: "MYSPACE", ContentType: "IMAGE",
	})
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestReviewWorkflowThenSchedule(t *testing.T) {
	h := newHarness(t, newFakePublisher("ig_1"))
	svc := newContentService(h.repo)
	ctx := context.Background()
	id := h.repo.seed(model.ContentItem{Status: model.StatusDraft, Platform: model.PlatformInstagram, ContentType: model.ContentImage})

	require.NoError(t, svc.SubmitReview(ctx, 1, id))
	assert.Equal(t, model.StatusReview, h.repo.get(id).Status)

	_, err := h.svc.Schedule(ctx, 1, id, t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, svc.Approve(ctx, id))
	assert.Equal(t, model.StatusApproved, h.repo.get(id).Status)

	_, err = h.svc.Schedule(ctx, 1, id, t0.Add(time.Hour))
	require.NoError(t, err)
	h.clock.Advance(time.Hour)
	assert.Equal(t, model.StatusPublished, h.repo.get(id).Status)
}

func TestRequestChangesAndIllegalMoves(t *testing.T) {
	repo := newMemContentRepo()
	svc := newContentService(repo)
	ctx := context.Background()

	id := repo.seed(model.ContentItem{Status: model.StatusReview})
	require.NoError(t, svc.RequestChanges(ctx, id))
	assert.Equal(t, model.StatusDraft, repo.get(id).Status)

	assert.ErrorIs(t, svc.Approve(ctx, id), ErrInvalidState)
	assert.ErrorIs(t, svc.RequestChanges(ctx, id), ErrInvalidState)
	assert.ErrorIs(t, svc.Approve(ctx, 999), ErrContentNotFound)

	other := repo.seed(model.ContentItem{Status: model.StatusDraft, OwnerID: 2})
	assert.ErrorIs(t, svc.SubmitReview(ctx, 1, other), ErrContentNotFound)
}

func TestRejectMarksFailed(t *testing.T) {
	repo := newMemContentRepo()
	svc := newContentService(repo)
	ctx := context.Background()

	id := repo.seed(model.ContentItem{Status: model.StatusReview})
	require.NoError(t, svc.Reject(ctx, id, "off brand"))

	item := repo.get(id)
	assert.Equal(t, model.StatusFailed, item.Status)
	assert.Equal(t, reviewRejectedReason, *item.FailureReason)
	assert.Equal(t, "off brand", *item.FailureDetail)

	draft := repo.seed(model.ContentItem{Status: model.StatusDraft})
	assert.ErrorIs(t, svc.Reject(ctx, draft, ""), ErrInvalidState)
}

func TestResubmitCreatesNewDraft(t *testing.T) {
	repo := newMemContentRepo()
	svc := newContentService(repo)
	ctx := context.Background()

	failed := repo.seed(model.ContentItem{Status: model.StatusFailed, Title: "Teaser"})
	res, err := svc.Resubmit(ctx, 1, failed)
	require.NoError(t, err)
	assert.NotEqual(t, failed, res.ID)
	assert.Equal(t, string(model.StatusDraft), res.Status)
	assert.Equal(t, "Teaser", res.Title)
	require.NotNil(t, res.ResubmittedFromID)
	assert.Equal(t, failed, *res.ResubmittedFromID)

	assert.Equal(t, model.StatusFailed, repo.get(failed).Status)

	published := repo.seed(model.ContentItem{Status: model.StatusPublished})
	_, err = svc.Resubmit(ctx, 1, published)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGetContentIncludesMetrics(t *testing.T) {
	h := newHarness(t, newFakePublisher("fb_9"))
	svc := newContentService(h.repo)
	ctx := context.Background()
	id := h.repo.seed(model.ContentItem{Status: model.StatusApproved})

	_, err := h.svc.PublishNow(ctx, 1, id)
	require.NoError(t, err)

	detail, err := svc.GetContent(ctx, 1, id)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusPublished), detail.Status)
	assert.Equal(t, "fb_9", detail.PlatformPostID)
	require.Len(t, detail.Metrics, 1)
	assert.Zero(t, detail.Metrics[0].Views)
	assert.Zero(t, detail.Metrics[0].Impressions)

	_, err = svc.GetContent(ctx, 2, id)
	assert.ErrorIs(t, err, ErrContentNotFound)
}
