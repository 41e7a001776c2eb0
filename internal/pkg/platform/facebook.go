package platform

import (
	"CommandCenter/internal/api/config"
	"CommandCenter/internal/model"
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const defaultGraphURL = "https://graph.facebook.com"

// graphError Graph API 通用错误体，Facebook 与 Instagram 共用
type graphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

type graphID struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

// graphReason Graph API 错误码归类
func graphReason(status int, code int) Reason {
	switch code {
	case 4, 17, 32, 613:
		return ReasonRateLimit
	case 102, 190:
		return ReasonInvalidCredential
	case 10, 200:
		if status == 403 {
			return ReasonInvalidCredential
		}
	case 368:
		return ReasonContentPolicy
	case 1, 2:
		return ReasonPlatformUnavailable
	}
	return reasonFromStatus(status)
}

func graphFailure(p model.Platform, resp *resty.Response) error {
	ge, _ := resp.Error().(*graphError)
	if ge == nil || ge.Error.Message == "" {
		return &PublishError{Platform: p, Reason: reasonFromStatus(resp.StatusCode()), Message: strings.TrimSpace(resp.Status())}
	}
	return &PublishError{
		Platform: p,
		Reason:   graphReason(resp.StatusCode(), ge.Error.Code),
		Message:  fmt.Sprintf("graph error %d: %s", ge.Error.Code, ge.Error.Message),
	}
}

// FacebookPublisher 通过 Graph API 发布到主页
type FacebookPublisher struct {
	client  *resty.Client
	version string
	pageID  string
	token   string
}

func NewFacebookPublisher(cfg config.FacebookConfig) *FacebookPublisher {
	base := cfg.BaseURL
	if base == "" {
		base = defaultGraphURL
	}
	return &FacebookPublisher{
		client:  newRestClient(base),
		version: cfg.APIVersion,
		pageID:  cfg.PageID,
		token:   cfg.AccessToken,
	}
}

func (p *FacebookPublisher) Publish(ctx context.Context, item *model.ContentItem) (*Result, error) {
	edge, form, err := p.buildRequest(item)
	if err != nil {
		return nil, err
	}
	form["access_token"] = p.token

	var out graphID
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&out).
		SetError(&graphError{}).
		Post(fmt.Sprintf("/%s/%s/%s", p.version, p.pageID, edge))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	if resp.IsError() {
		return nil, graphFailure(model.PlatformFacebook, resp)
	}

	id := out.PostID
	if id == "" {
		id = out.ID
	}
	if id == "" {
		return nil, &PublishError{Platform: model.PlatformFacebook, Reason: ReasonUnknown, Message: "empty post id in response"}
	}
	return &Result{PlatformPostID: id}, nil
}

func (p *FacebookPublisher) buildRequest(item *model.ContentItem) (string, map[string]string, error) {
	media := deref(item.MediaURL)
	switch item.ContentType {
	case model.ContentText:
		form := map[string]string{"message": item.Body}
		if media != "" {
			form["link"] = media
		}
		return "feed", form, nil
	case model.ContentImage:
		if media == "" {
			return "", nil, &PublishError{Platform: model.PlatformFacebook, Reason: ReasonUnknown, Message: "image post requires a media url"}
		}
		return "photos", map[string]string{"url": media, "caption": item.Body}, nil
	case model.ContentVideo:
		if media == "" {
			return "", nil, &PublishError{Platform: model.PlatformFacebook, Reason: ReasonUnknown, Message: "video post requires a media url"}
		}
		return "videos", map[string]string{"file_url": media, "title": item.Title, "description": item.Body}, nil
	}
	return "", nil, &PublishError{Platform: model.PlatformFacebook, Reason: ReasonContentPolicy, Message: fmt.Sprintf("unsupported content type %s", item.ContentType)}
}
