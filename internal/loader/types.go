package loader

// Tab is a CDP target as listed by /json/list
type Tab struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	Type                 string `json:"type,omitempty"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl,omitempty"`
}

// IsPage reports whether the target is a browser tab rather than a worker,
// extension background page or iframe.
func (t Tab) IsPage() bool {
	return t.Type == "page" || t.Type == ""
}

// BrowserVersion is the payload of /json/version
type BrowserVersion struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	UserAgent            string `json:"User-Agent"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}
