package mockses

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

const sesXMLNS = "http://ses.amazonaws.com/doc/2010-12-01/"

// Message records one SendEmail call accepted or rejected by the mock.
type Message struct {
	Source  string
	To      []string
	ReplyTo []string
	Subject string
	Text    string
	HTML    string

	MessageID string
	// RejectCode is set when the mock answered with an error.
	RejectCode string
}

type rejection struct {
	code    string
	message string
}

// Server implements the SES v1 query API surface used by the mailer: Action=SendEmail.
type Server struct {
	mu       sync.Mutex
	messages []Message
	rejects  map[string]rejection
	nextID   int
}

// New constructs a new mock server.
func New() *Server {
	return &Server{
		rejects: make(map[string]rejection),
		nextID:  1,
	}
}

// Reject makes every send to address fail with the given SES error code and message.
func (s *Server) Reject(address, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejects[strings.ToLower(strings.TrimSpace(address))] = rejection{code: code, message: message}
}

// Messages returns a snapshot of messages received by the server.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleQuery)
	return mux
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidParameterValue", "malformed form body")
		return
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), "AWS4-HMAC-SHA256 ") {
		writeError(w, http.StatusForbidden, "MissingAuthenticationToken", "Request is missing Authentication Token")
		return
	}

	switch action := r.PostForm.Get("Action"); action {
	case "SendEmail":
		s.handleSendEmail(w, r)
	default:
		writeError(w, http.StatusBadRequest, "InvalidAction", fmt.Sprintf("Unsupported action %q", action))
	}
}

func (s *Server) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	f := r.PostForm
	msg := Message{
		Source:  f.Get("Source"),
		To:      members(f, "Destination.ToAddresses.member."),
		ReplyTo: members(f, "ReplyToAddresses.member."),
		Subject: f.Get("Message.Subject.Data"),
		Text:    f.Get("Message.Body.Text.Data"),
		HTML:    f.Get("Message.Body.Html.Data"),
	}
	if msg.Source == "" || len(msg.To) == 0 {
		writeError(w, http.StatusBadRequest, "ValidationError", "Source and Destination are required")
		return
	}

	s.mu.Lock()
	var rej *rejection
	for _, to := range msg.To {
		if v, ok := s.rejects[strings.ToLower(strings.TrimSpace(to))]; ok {
			rej = &v
			break
		}
	}
	if rej != nil {
		msg.RejectCode = rej.code
	} else {
		msg.MessageID = fmt.Sprintf("mock-%06d", s.nextID)
		s.nextID++
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	if rej != nil {
		writeError(w, http.StatusBadRequest, rej.code, rej.message)
		return
	}

	writeXML(w, http.StatusOK, sendEmailResponse{
		XMLNS:     sesXMLNS,
		MessageID: msg.MessageID,
		RequestID: "req-" + msg.MessageID,
	})
}

func members(f map[string][]string, prefix string) []string {
	var out []string
	for i := 1; ; i++ {
		v, ok := f[fmt.Sprintf("%s%d", prefix, i)]
		if !ok || len(v) == 0 {
			return out
		}
		out = append(out, v[0])
	}
}

type sendEmailResponse struct {
	XMLName   xml.Name `xml:"SendEmailResponse"`
	XMLNS     string   `xml:"xmlns,attr"`
	MessageID string   `xml:"SendEmailResult>MessageId"`
	RequestID string   `xml:"ResponseMetadata>RequestId"`
}

type errorResponse struct {
	XMLName   xml.Name `xml:"ErrorResponse"`
	XMLNS     string   `xml:"xmlns,attr"`
	Type      string   `xml:"Error>Type"`
	Code      string   `xml:"Error>Code"`
	Message   string   `xml:"Error>Message"`
	RequestID string   `xml:"RequestId"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeXML(w, status, errorResponse{
		XMLNS:     sesXMLNS,
		Type:      "Sender",
		Code:      code,
		Message:   message,
		RequestID: "req-error",
	})
}

func writeXML(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(v)
}
