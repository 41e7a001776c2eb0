package platform

import (
	"CommandCenter/internal/model"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Requirements 平台对内容的硬性限制
type Requirements struct {
	MaxChars    int
	MaxHashtags int
	Formats     []model.ContentType
}

var requirements = map[model.Platform]Requirements{
	model.PlatformTikTok: {
		MaxChars:    150,
		MaxHashtags: 5,
		Formats:     []model.ContentType{model.ContentVideo},
	},
	model.PlatformInstagram: {
		MaxChars:    2200,
		MaxHashtags: 30,
		Formats:     []model.ContentType{model.ContentImage, model.ContentVideo, model.ContentStory, model.ContentReel},
	},
	model.PlatformFacebook: {
		MaxChars:    63206,
		MaxHashtags: 10,
		Formats:     []model.ContentType{model.ContentText, model.ContentImage, model.ContentVideo},
	},
	model.PlatformYouTube: {
		MaxChars:    5000,
		MaxHashtags: 15,
		Formats:     []model.ContentType{model.ContentVideo},
	},
}

// CheckRequirements 校验内容是否满足目标平台限制，返回第一条违规描述
func CheckRequirements(item *model.ContentItem) error {
	req, ok := requirements[item.Platform]
	if !ok {
		return fmt.Errorf("unsupported platform %q", item.Platform)
	}
	if n := utf8.RuneCountInString(item.Body); n > req.MaxChars {
		return fmt.Errorf("%s allows at most %d characters, got %d", item.Platform, req.MaxChars, n)
	}
	if n := countHashtags(item.Body); n > req.MaxHashtags {
		return fmt.Errorf("%s allows at most %d hashtags, got %d", item.Platform, req.MaxHashtags, n)
	}
	if !slices.Contains(req.Formats, item.ContentType) {
		return fmt.Errorf("%s does not accept %s content", item.Platform, item.ContentType)
	}
	return nil
}

// countHashtags 正文中以 # 开头的词
func countHashtags(body string) int {
	n := 0
	for _, word := range strings.Fields(body) {
		if len(word) > 1 && word[0] == '#' {
			n++
		}
	}
	return n
}
