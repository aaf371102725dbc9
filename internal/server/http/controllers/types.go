package controllers

// Common request/response types for HTTP controllers

// greetReq is the body of POST /v1/greet.
type greetReq struct {
	Name string `json:"name"`
}

// greetResp carries the greeting message.
type greetResp struct {
	Message string `json:"message"`
}

// nameCountResp is returned by /v1/greeted.
type nameCountResp struct {
	Name  string `json:"name"`
	Count uint64 `json:"count"`
}

// totalResp is returned by the total endpoints.
type totalResp struct {
	Total uint64 `json:"total"`
}

// eventJSON is one event in a list response.
type eventJSON struct {
	Seq     uint64 `json:"seq"`
	Payload string `json:"payload"`
}

// listEventsResp is a page of events with the token that resumes the scan.
type listEventsResp struct {
	Items []eventJSON `json:"items"`
	Next  string      `json:"next,omitempty"`
}

// logEntryJSON is one entry served by /logs.
type logEntryJSON struct {
	Timestamp int64          `json:"timestamp"`
	Priority  string         `json:"priority"`
	File      string         `json:"file"`
	Line      int            `json:"line"`
	Message   string         `json:"message"`
	Counter   uint64         `json:"counter"`
	Fields    map[string]any `json:"fields,omitempty"`
}
