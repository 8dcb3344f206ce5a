package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"sagiri-relay/network"
)

// fakeRelay records what the agent sends and serves canned replies.
type fakeRelay struct {
	mu          sync.Mutex
	pending     []network.Command
	completeErr error
	completed   map[string]network.CommandOutput
	frames      []network.ScreenFrame
	pointer     *network.PointerRequest
	pointerRes  []interface{}
	keyboard    []network.KeyboardRequest
	keyRes      map[string]interface{}
	pushed      []network.AudioChunk
	speaker     []network.AudioChunk
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{completed: map[string]network.CommandOutput{}, keyRes: map[string]interface{}{}}
}

func (f *fakeRelay) PendingCommands(context.Context) ([]network.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]network.Command(nil), f.pending...), nil
}

func (f *fakeRelay) CompleteCommand(_ context.Context, id string, out network.CommandOutput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed[id] = out
	return nil
}

func (f *fakeRelay) PublishScreen(_ context.Context, _ string, frame network.ScreenFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeRelay) PollPointer(context.Context, string) (*network.PointerRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req := f.pointer
	f.pointer = nil
	return req, nil
}

func (f *fakeRelay) ReportPointerResult(_ context.Context, _ string, result interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pointerRes = append(f.pointerRes, result)
	return nil
}

func (f *fakeRelay) PendingKeyboard(context.Context, string) ([]network.KeyboardRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reqs := f.keyboard
	f.keyboard = nil
	return reqs, nil
}

func (f *fakeRelay) ReportKeyboardResult(_ context.Context, id string, result interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyRes[id] = result
	return nil
}

func (f *fakeRelay) PushAudio(_ context.Context, _ string, _ network.AudioDirection, chunk network.AudioChunk) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, chunk)
	return 0, nil
}

func (f *fakeRelay) PopAudio(context.Context, string, network.AudioDirection) (*network.AudioChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.speaker) == 0 {
		return nil, nil
	}
	c := f.speaker[0]
	f.speaker = f.speaker[1:]
	return &c, nil
}

func (f *fakeRelay) UploadFile(context.Context, string, io.Reader) (network.FileUpload, error) {
	return network.FileUpload{}, errors.New("not supported")
}

func (f *fakeRelay) DownloadFile(context.Context, string, io.Writer) (network.FileDownload, error) {
	return network.FileDownload{}, errors.New("not supported")
}

func (f *fakeRelay) ListFiles(context.Context) (map[string]network.FileEntry, error) {
	return nil, nil
}

// recordingKeys remembers what it was asked to type.
type recordingKeys struct {
	mu    sync.Mutex
	typed []string
}

func (k *recordingKeys) Type(_ context.Context, text string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.typed = append(k.typed, text)
	return nil
}

func (k *recordingKeys) Shortcut(context.Context, string) error {
	return errors.New("no shortcuts here")
}

type bufferSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *bufferSink) Open(context.Context) (io.WriteCloser, error) { return s, nil }
func (s *bufferSink) Close() error                                  { return nil }

func (s *bufferSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *bufferSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

type readerSource struct{ r io.Reader }

func (s readerSource) Open(context.Context) (io.ReadCloser, error) { return io.NopCloser(s.r), nil }
