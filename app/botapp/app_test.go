package botapp

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ridebot/app/config"
	"github.com/m3rciful/ridebot/app/storage"
)

// stubContext implements the slice of tele.Context the handlers touch.
// Unstubbed methods panic through the embedded nil interface, which is
// fine: a test reaching them is a test that needs a bigger stub.
type stubContext struct {
	tele.Context
	sender   *tele.User
	callback *tele.Callback
	message  *tele.Message
	kv       map[string]interface{}
	sent     []string
}

func newStubContext(userID int64) *stubContext {
	return &stubContext{
		sender: &tele.User{ID: userID},
		kv:     make(map[string]interface{}),
	}
}

func (s *stubContext) Sender() *tele.User       { return s.sender }
func (s *stubContext) Callback() *tele.Callback { return s.callback }
func (s *stubContext) Message() *tele.Message   { return s.message }
func (s *stubContext) Chat() *tele.Chat         { return nil }
func (s *stubContext) Update() tele.Update      { return tele.Update{} }

func (s *stubContext) Text() string {
	if s.message != nil {
		return s.message.Text
	}
	return ""
}

func (s *stubContext) Get(key string) interface{} { return s.kv[key] }

func (s *stubContext) Set(key string, val interface{}) { s.kv[key] = val }

func (s *stubContext) Send(what interface{}, _ ...interface{}) error {
	if text, ok := what.(string); ok {
		s.sent = append(s.sent, text)
	}
	return nil
}

func (s *stubContext) Respond(_ ...*tele.CallbackResponse) error { return nil }

func newTestApp(t *testing.T) (*App, *storage.Memory) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Manager.Key = "sesame"
	store := storage.NewMemory()
	app, err := build(cfg, store)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return app, store
}
