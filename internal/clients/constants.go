package clients

import "time"

const (
	NAVER_BLOG_ENDPOINT  = "https://openapi.naver.com/v1/search/blog"
	NAVER_TIMEOUT        = 10 * time.Second
	OPENAI_TIMEOUT       = 60 * time.Second
	USER_AGENT           = "reviewflow-client/1.0 (+https://github.com/spacesedan/reviewflow)"
	MIN_DISPLAY          = 10
	MAX_DISPLAY          = 100
	DEFAULT_DISPLAY      = 50
	MAX_START            = 1000
	MAX_ERROR_BODY_BYTES = 512
)
