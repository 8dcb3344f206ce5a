package network

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"sagiri-relay/backend/app/dto"
	"sagiri-relay/backend/app/models"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// ErrDigestMismatch means a downloaded file does not hash to the digest the
// relay advertised.
var ErrDigestMismatch = errors.New("downloaded file digest mismatch")

func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, c.timeouts.Control, http.MethodGet, "/ping", nil, nil, nil)
}

func (c *Client) Info(ctx context.Context) (Info, error) {
	var out Info
	err := c.call(ctx, c.timeouts.Normal, http.MethodGet, "/info", nil, nil, &out)
	return out, err
}

// Commands

func (c *Client) SubmitCommand(ctx context.Context, text, deviceID string) (string, error) {
	var out dto.SubmitCommandResponse
	in := dto.SubmitCommandRequest{Text: text, DeviceID: deviceID}
	if err := c.call(ctx, c.timeouts.Normal, http.MethodPost, "/commands", nil, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// PendingCommands returns the pending commands visible to this client's
// device, oldest first.
func (c *Client) PendingCommands(ctx context.Context) ([]Command, error) {
	var q url.Values
	if c.deviceID != "" {
		q = url.Values{"device_id": {c.deviceID}}
	}
	var out map[string]Command
	if err := c.call(ctx, c.timeouts.Normal, http.MethodGet, "/commands/pending", q, nil, &out); err != nil {
		return nil, err
	}
	cmds := make([]Command, 0, len(out))
	for _, cmd := range out {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool {
		if !cmds[i].CreatedAt.Equal(cmds[j].CreatedAt) {
			return cmds[i].CreatedAt.Before(cmds[j].CreatedAt)
		}
		return cmds[i].ID < cmds[j].ID
	})
	return cmds, nil
}

func (c *Client) CompleteCommand(ctx context.Context, id string, output CommandOutput) error {
	in := dto.CompleteCommandRequest{Output: &output}
	return c.call(ctx, c.timeouts.Normal, http.MethodPost, "/commands/"+url.PathEscape(id)+"/complete", nil, in, nil)
}

func (c *Client) CommandStatus(ctx context.Context, id string) (Command, error) {
	var out Command
	err := c.call(ctx, c.timeouts.Normal, http.MethodGet, "/commands/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// WaitCommand polls the command every interval until it completes or ctx
// ends.
func (c *Client) WaitCommand(ctx context.Context, id string, every time.Duration) (Command, error) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		cmd, err := c.CommandStatus(ctx, id)
		if err != nil {
			return cmd, err
		}
		if cmd.Status == models.CommandCompleted {
			return cmd, nil
		}
		select {
		case <-ctx.Done():
			return cmd, errors.Wrapf(ctx.Err(), "waiting for command %s", id)
		case <-t.C:
		}
	}
}

// Files

// UploadFile streams src to the relay as a multipart upload.
func (c *Client) UploadFile(ctx context.Context, filename string, src io.Reader) (FileUpload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Bulk)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, src)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/files", nil), pr)
	if err != nil {
		_ = pr.Close()
		return FileUpload{}, errors.Wrap(err, "build upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return FileUpload{}, err
	}
	defer resp.Body.Close()
	var out FileUpload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return FileUpload{}, errors.Wrap(err, "decode upload response")
	}
	return out, nil
}

// DownloadFile copies file id into dst and checks its BLAKE3 digest when
// the relay provides one.
func (c *Client) DownloadFile(ctx context.Context, id string, dst io.Writer) (FileDownload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Bulk)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/files/"+url.PathEscape(id), nil), nil)
	if err != nil {
		return FileDownload{}, errors.Wrap(err, "build download request")
	}
	resp, err := c.do(req)
	if err != nil {
		return FileDownload{}, err
	}
	defer resp.Body.Close()

	info := FileDownload{ID: id, Filename: id, Blake3: resp.Header.Get("X-Content-Blake3")}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		info.Filename = params["filename"]
	}
	hasher := blake3.New()
	n, err := io.Copy(io.MultiWriter(dst, hasher), resp.Body)
	info.Size = n
	if err != nil {
		return info, errors.Wrapf(err, "download %s", id)
	}
	if want := resp.Header.Get("Content-Length"); want != "" && resp.Header.Get("Content-Encoding") == "" {
		if size, perr := strconv.ParseInt(want, 10, 64); perr == nil && size != n {
			return info, errors.Errorf("download %s: got %d of %d bytes", id, n, size)
		}
	}
	if info.Blake3 != "" && hex.EncodeToString(hasher.Sum(nil)) != info.Blake3 {
		return info, errors.Wrapf(ErrDigestMismatch, "download %s", id)
	}
	return info, nil
}

// ListFiles returns file metadata keyed by id.
func (c *Client) ListFiles(ctx context.Context) (map[string]FileEntry, error) {
	var out map[string]FileEntry
	err := c.call(ctx, c.timeouts.Normal, http.MethodGet, "/files", nil, nil, &out)
	return out, err
}

// Screen

func devicePath(deviceID, suffix string) string {
	return "/devices/" + url.PathEscape(deviceID) + suffix
}

func (c *Client) PublishScreen(ctx context.Context, deviceID string, frame ScreenFrame) error {
	in := dto.ScreenFrameRequest{
		Image:        frame.Image,
		Width:        frame.Width,
		Height:       frame.Height,
		ScreenWidth:  frame.ScreenWidth,
		ScreenHeight: frame.ScreenHeight,
		MouseX:       frame.CursorX,
		MouseY:       frame.CursorY,
		CapturedAt:   frame.CapturedAt,
	}
	return c.call(ctx, c.timeouts.Normal, http.MethodPost, devicePath(deviceID, "/screen"), nil, in, nil)
}

func (c *Client) LatestScreen(ctx context.Context, deviceID string) (ScreenFrame, error) {
	var out ScreenFrame
	err := c.call(ctx, c.timeouts.Normal, http.MethodGet, devicePath(deviceID, "/screen"), nil, nil, &out)
	return out, err
}

// SetScreenQuality returns the id of the control command queued for the
// device.
func (c *Client) SetScreenQuality(ctx context.Context, deviceID string, quality int) (string, error) {
	var out dto.ScreenQualityResponse
	in := dto.ScreenQualityRequest{Quality: quality}
	if err := c.call(ctx, c.timeouts.Normal, http.MethodPost, devicePath(deviceID, "/screen/quality"), nil, in, &out); err != nil {
		return "", err
	}
	return out.CommandID, nil
}

func (c *Client) Devices(ctx context.Context) ([]string, error) {
	var out dto.DevicesResponse
	err := c.call(ctx, c.timeouts.Normal, http.MethodGet, "/devices", nil, nil, &out)
	return out.Devices, err
}

// Pointer

// RequestPointer reports whether an unconsumed request was overwritten.
func (c *Client) RequestPointer(ctx context.Context, deviceID string, req PointerRequest) (bool, error) {
	in := dto.PointerRequest{Action: string(req.Action), X: req.X, Y: req.Y, Button: req.Button}
	var out dto.PointerRequestResponse
	err := c.call(ctx, c.timeouts.Normal, http.MethodPost, devicePath(deviceID, "/pointer"), nil, in, &out)
	return out.Replaced, err
}

// PollPointer takes the waiting pointer request, or returns nil.
func (c *Client) PollPointer(ctx context.Context, deviceID string) (*PointerRequest, error) {
	var out PointerRequest
	if err := c.call(ctx, c.timeouts.Control, http.MethodGet, devicePath(deviceID, "/pointer"), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Action == "" {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) ReportPointerResult(ctx context.Context, deviceID string, result interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "encode pointer result")
	}
	return c.call(ctx, c.timeouts.Control, http.MethodPost, devicePath(deviceID, "/pointer/result"), nil, dto.ResultRequest{Result: raw}, nil)
}

// PointerResult takes the latest result; ok is false while none is waiting.
func (c *Client) PointerResult(ctx context.Context, deviceID string) (json.RawMessage, bool, error) {
	var out dto.ResultResponse
	if err := c.call(ctx, c.timeouts.Normal, http.MethodGet, devicePath(deviceID, "/pointer/result"), nil, nil, &out); err != nil {
		return nil, false, err
	}
	return out.Result, len(out.Result) > 0, nil
}

// Keyboard

func (c *Client) RequestKeyboard(ctx context.Context, deviceID string, kind models.KeyboardKind, payload string) (string, error) {
	var out dto.KeyboardRequestResponse
	in := dto.KeyboardRequest{Kind: string(kind), Payload: payload}
	if err := c.call(ctx, c.timeouts.Normal, http.MethodPost, devicePath(deviceID, "/keyboard"), nil, in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) PendingKeyboard(ctx context.Context, deviceID string) ([]KeyboardRequest, error) {
	var out []KeyboardRequest
	err := c.call(ctx, c.timeouts.Control, http.MethodGet, devicePath(deviceID, "/keyboard/pending"), nil, nil, &out)
	return out, err
}

func (c *Client) ReportKeyboardResult(ctx context.Context, id string, result interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "encode keyboard result")
	}
	return c.call(ctx, c.timeouts.Control, http.MethodPost, "/keyboard/"+url.PathEscape(id)+"/result", nil, dto.ResultRequest{Result: raw}, nil)
}

// KeyboardResult fetches the outcome of a keyboard request. A completed
// result can be fetched once.
func (c *Client) KeyboardResult(ctx context.Context, id string) (KeyboardResult, error) {
	var out KeyboardResult
	err := c.call(ctx, c.timeouts.Normal, http.MethodGet, "/keyboard/"+url.PathEscape(id)+"/result", nil, nil, &out)
	return out, err
}

// Audio

func (c *Client) PushAudio(ctx context.Context, deviceID string, dir models.AudioDirection, chunk AudioChunk) (int, error) {
	in := dto.AudioChunkRequest{Data: chunk.Payload, Format: chunk.Format, Channels: chunk.Channels, Rate: chunk.Rate}
	var out dto.AudioPushResponse
	err := c.call(ctx, c.timeouts.Normal, http.MethodPost, devicePath(deviceID, "/audio/"+url.PathEscape(string(dir))), nil, in, &out)
	return out.Dropped, err
}

// PopAudio takes the oldest chunk, or returns nil when the FIFO is empty.
func (c *Client) PopAudio(ctx context.Context, deviceID string, dir models.AudioDirection) (*AudioChunk, error) {
	var out AudioChunk
	if err := c.call(ctx, c.timeouts.Normal, http.MethodGet, devicePath(deviceID, "/audio/"+url.PathEscape(string(dir))), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Payload == "" {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) Sweep(ctx context.Context) (SweepReport, error) {
	var out SweepReport
	err := c.call(ctx, c.timeouts.Normal, http.MethodPost, "/sweep", nil, nil, &out)
	return out, err
}
