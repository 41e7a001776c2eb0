package platform

import (
	"CommandCenter/internal/api/config"
	"CommandCenter/internal/model"
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const defaultTikTokURL = "https://open.tiktokapis.com"

type tiktokEnvelope struct {
	Data struct {
		PublishID string `json:"publish_id"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		LogID   string `json:"log_id"`
	} `json:"error"`
}

// TikTokPublisher Content Posting API，视频由平台从 URL 拉取
type TikTokPublisher struct {
	client  *resty.Client
	privacy string
}

func NewTikTokPublisher(cfg config.TikTokConfig) *TikTokPublisher {
	base := cfg.BaseURL
	if base == "" {
		base = defaultTikTokURL
	}
	return &TikTokPublisher{
		client:  newRestClient(base).SetAuthToken(cfg.AccessToken),
		privacy: cfg.PrivacyLevel,
	}
}

func tiktokReason(status int, code string) Reason {
	switch code {
	case "rate_limit_exceeded", "spam_risk_too_many_posts", "spam_risk_too_many_pending_share":
		return ReasonRateLimit
	case "access_token_invalid", "scope_not_authorized", "scope_permission_missed", "unaudited_client_can_only_post_to_private_accounts":
		return ReasonInvalidCredential
	case "spam_risk_user_banned_from_posting", "url_ownership_unverified", "privacy_level_option_mismatch":
		return ReasonContentPolicy
	case "internal_error":
		return ReasonPlatformUnavailable
	}
	return reasonFromStatus(status)
}

func (p *TikTokPublisher) Publish(ctx context.Context, item *model.ContentItem) (*Result, error) {
	media := deref(item.MediaURL)
	if media == "" {
		return nil, &PublishError{Platform: model.PlatformTikTok, Reason: ReasonUnknown, Message: "tiktok post requires a video url"}
	}

	body := map[string]any{
		"post_info": map[string]any{
			"title":         item.Body,
			"privacy_level": p.privacy,
		},
		"source_info": map[string]any{
			"source":    "PULL_FROM_URL",
			"video_url": media,
		},
	}

	var out tiktokEnvelope
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json; charset=UTF-8").
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/v2/post/publish/video/init/")
	if err != nil {
		return nil, transportError(ctx, err)
	}

	if resp.IsError() || (out.Error.Code != "" && out.Error.Code != "ok") {
		msg := out.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &PublishError{
			Platform: model.PlatformTikTok,
			Reason:   tiktokReason(resp.StatusCode(), out.Error.Code),
			Message:  fmt.Sprintf("%s: %s", out.Error.Code, msg),
		}
	}
	if out.Data.PublishID == "" {
		return nil, &PublishError{Platform: model.PlatformTikTok, Reason: ReasonUnknown, Message: "empty publish id in response"}
	}
	return &Result{PlatformPostID: out.Data.PublishID}, nil
}
