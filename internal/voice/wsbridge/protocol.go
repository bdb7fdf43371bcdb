package wsbridge

import "portfolio-api/internal/extraction"

// Client -> server frame types.
const (
	inStart   = "start"
	inEnd     = "end"
	inMute    = "mute"
	inConfirm = "confirm"
	inDiscard = "discard"
	inSDK     = "sdk"
)

// SDK event names relayed by the browser.
const (
	sdkCallStart   = "call-start"
	sdkCallEnd     = "call-end"
	sdkSpeechStart = "speech-start"
	sdkSpeechEnd   = "speech-end"
	sdkMessage     = "message"
	sdkVolumeLevel = "volume-level"
	sdkError       = "error"
)

type inFrame struct {
	Type    string            `json:"type"`
	Muted   bool              `json:"muted"`
	Draft   *extraction.Draft `json:"draft"`
	Event   string            `json:"event"`
	Message *sdkMessageBody   `json:"message"`
	Volume  float64           `json:"volume"`
	Error   string            `json:"error"`
}

type sdkMessageBody struct {
	Type           string `json:"type"`
	TranscriptType string `json:"transcriptType"`
	Role           string `json:"role"`
	Transcript     string `json:"transcript"`
}

// Server -> client frame types.
const (
	outCommand   = "command"
	outState     = "state"
	outCaption   = "caption"
	outUtterance = "utterance"
	outVolume    = "volume"
	outNotice    = "notice"
	outReview    = "review"
	outNavigate  = "navigate"
	outError     = "error"
)

// Adapter commands for the browser SDK.
const (
	cmdStart    = "start"
	cmdStop     = "stop"
	cmdSetMuted = "set-muted"
)
