package platform

import (
	"CommandCenter/internal/api/config"
	"CommandCenter/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// InstagramPublisher 两步发布：先创建媒体容器，待容器就绪后 media_publish
type InstagramPublisher struct {
	client       *resty.Client
	version      string
	userID       string
	token        string
	pollInterval time.Duration
}

func NewInstagramPublisher(cfg config.InstagramConfig) *InstagramPublisher {
	base := cfg.BaseURL
	if base == "" {
		base = defaultGraphURL
	}
	return &InstagramPublisher{
		client:       newRestClient(base),
		version:      cfg.APIVersion,
		userID:       cfg.UserID,
		token:        cfg.AccessToken,
		pollInterval: 2 * time.Second,
	}
}

func (p *InstagramPublisher) Publish(ctx context.Context, item *model.ContentItem) (*Result, error) {
	containerID, err := p.createContainer(ctx, item)
	if err != nil {
		return nil, err
	}
	if item.ContentType != model.ContentImage {
		if err = p.waitContainer(ctx, containerID); err != nil {
			return nil, err
		}
	}

	var out graphID
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"creation_id":  containerID,
			"access_token": p.token,
		}).
		SetResult(&out).
		SetError(&graphError{}).
		Post(fmt.Sprintf("/%s/%s/media_publish", p.version, p.userID))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if resp.IsError() {
		return nil, graphFailure(model.PlatformInstagram, resp)
	}
	if out.ID == "" {
		return nil, &PublishError{Platform: model.PlatformInstagram, Reason: ReasonUnknown, Message: "empty media id in response"}
	}
	return &Result{PlatformPostID: out.ID}, nil
}

func (p *InstagramPublisher) createContainer(ctx context.Context, item *model.ContentItem) (string, error) {
	media := deref(item.MediaURL)
	if media == "" {
		return "", &PublishError{Platform: model.PlatformInstagram, Reason: ReasonUnknown, Message: "instagram post requires a media url"}
	}

	form := map[string]string{
		"caption":      item.Body,
		"access_token": p.token,
	}
	switch item.ContentType {
	case model.ContentImage:
		form["image_url"] = media
	case model.ContentVideo, model.ContentReel:
		form["media_type"] = "REELS"
		form["video_url"] = media
	case model.ContentStory:
		form["media_type"] = "STORIES"
		form["video_url"] = media
	default:
		return "", &PublishError{Platform: model.PlatformInstagram, Reason: ReasonContentPolicy, Message: fmt.Sprintf("unsupported content type %s", item.ContentType)}
	}

	var out graphID
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&out).
		SetError(&graphError{}).
		Post(fmt.Sprintf("/%s/%s/media", p.version, p.userID))
	if err != nil {
		return "", transportError(ctx, err)
	}
	if resp.IsError() {
		return "", graphFailure(model.PlatformInstagram, resp)
	}
	if out.ID == "" {
		return "", &PublishError{Platform: model.PlatformInstagram, Reason: ReasonUnknown, Message: "empty container id in response"}
	}
	return out.ID, nil
}

// waitContainer 视频容器需要转码完成才能发布
func (p *InstagramPublisher) waitContainer(ctx context.Context, containerID string) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		var status struct {
			StatusCode string `json:"status_code"`
			Status     string `json:"status"`
		}
		resp, err := p.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"fields":       "status_code,status",
				"access_token": p.token,
			}).
			SetResult(&status).
			SetError(&graphError{}).
			Get(fmt.Sprintf("/%s/%s", p.version, containerID))
		if err != nil {
			return transportError(ctx, err)
		}
		if resp.IsError() {
			return graphFailure(model.PlatformInstagram, resp)
		}

		switch status.StatusCode {
		case "FINISHED", "PUBLISHED":
			return nil
		case "ERROR", "EXPIRED":
			return &PublishError{Platform: model.PlatformInstagram, Reason: ReasonContentPolicy, Message: fmt.Sprintf("media container %s: %s", status.StatusCode, status.Status)}
		}

		select {
		case <-ctx.Done():
			return transportError(ctx, ctx.Err())
		case <-ticker.C:
		}
	}
}
