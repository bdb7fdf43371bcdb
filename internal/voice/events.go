package voice

import (
	"portfolio-api/internal/extraction"
	"portfolio-api/internal/transcript"
)

// NoticeCode identifies a user-visible notice.
type NoticeCode string

const (
	NoticeTimeLimit        NoticeCode = "time_limit"
	NoticeProcessingFailed NoticeCode = "processing_failed"
	NoticeSaveFailed       NoticeCode = "save_failed"
	NoticeConnectFailed    NoticeCode = "connect_failed"
	NoticeSaved            NoticeCode = "saved"
)

var noticeMessages = map[NoticeCode]string{
	NoticeTimeLimit:        "Time limit reached. Wrapping up the call.",
	NoticeProcessingFailed: "Sorry, we couldn't process the conversation. Please start a new call.",
	NoticeSaveFailed:       "Could not save your changes. Please try again.",
	NoticeConnectFailed:    "Could not connect the call. Please try again.",
	NoticeSaved:            "Thanks! Your inquiry was sent.",
}

type Notice struct {
	Code    NoticeCode `json:"code"`
	Message string     `json:"message"`
}

func newNotice(code NoticeCode) Notice {
	return Notice{Code: code, Message: noticeMessages[code]}
}

// EventSink receives UI updates from the Controller. Calls are made while the
// Controller holds its lock, so implementations must not call back into it.
type EventSink interface {
	StateChanged(s Snapshot)
	Caption(u transcript.Utterance)
	Utterance(u transcript.Utterance)
	Volume(level float64)
	Notice(n Notice)
	Review(d extraction.Draft)
	Navigate(to string)
}
