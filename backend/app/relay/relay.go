// Package relay wires the channel stores and the sweeper into one value
// with an explicit lifecycle. Nothing here is package-level state, so
// several relays can run side by side in tests.
package relay

import (
	"context"
	"fmt"
	"time"

	"sagiri-relay/backend/app/repo"
	"sagiri-relay/backend/app/services"

	"github.com/rs/zerolog"
)

const (
	DefaultSweepSchedule = "@every 5m"
	DefaultMaxCommands   = 10000
	DefaultMaxKeyboard   = 10000
	DefaultMaxUpload     = 100 << 20
)

type Options struct {
	Clock         services.Clock
	Horizon       time.Duration
	SweepSchedule string
	// Retention, when set, is used instead of a new one built from Horizon
	// so that collaborators built outside the relay see horizon changes.
	Retention *services.Retention

	MaxCommands     int
	MaxKeyboard     int
	MicCapacity     int
	SpeakerCapacity int

	// Blobs backs the file store. When nil a disk repository under the
	// system temp dir is used.
	Blobs     repo.BlobRepository
	MaxUpload int64

	Logger zerolog.Logger
}

type Relay struct {
	Commands *services.CommandService
	Screens  *services.ScreenService
	Pointer  *services.PointerService
	Keyboard *services.KeyboardService
	Audio    *services.AudioService
	Files    *services.FileService
	Sweeper  *services.Sweeper

	opts      Options
	blobs     repo.BlobRepository
	retention *services.Retention
	log       zerolog.Logger
	started   time.Time
}

func New(opts Options) (*Relay, error) {
	if opts.Clock == nil {
		opts.Clock = services.RealClock()
	}
	if opts.SweepSchedule == "" {
		opts.SweepSchedule = DefaultSweepSchedule
	}
	if opts.MaxCommands == 0 {
		opts.MaxCommands = DefaultMaxCommands
	}
	if opts.MaxKeyboard == 0 {
		opts.MaxKeyboard = DefaultMaxKeyboard
	}
	if opts.MaxUpload == 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	blobs := opts.Blobs
	if blobs == nil {
		disk, err := repo.NewDiskBlobRepository("")
		if err != nil {
			return nil, fmt.Errorf("file storage: %w", err)
		}
		blobs = disk
	}

	retention := opts.Retention
	if retention == nil {
		retention = services.NewRetention(opts.Horizon)
	}
	screens := services.NewScreenService(opts.Clock)
	r := &Relay{
		Commands:  services.NewCommandService(opts.Clock, retention, opts.MaxCommands),
		Screens:   screens,
		Pointer:   services.NewPointerService(opts.Clock, screens),
		Keyboard:  services.NewKeyboardService(opts.Clock, retention, opts.MaxKeyboard),
		Audio:     services.NewAudioService(opts.Clock, opts.MicCapacity, opts.SpeakerCapacity),
		Files:     services.NewFileService(opts.Clock, blobs, opts.MaxUpload, opts.Logger.With().Str("store", "files").Logger()),
		opts:      opts,
		blobs:     blobs,
		retention: retention,
		log:       opts.Logger,
		started:   opts.Clock.Now(),
	}
	r.Sweeper = services.NewSweeper(opts.Clock, retention, opts.Logger.With().Str("component", "sweeper").Logger(),
		r.Commands, r.Screens, r.Pointer, r.Keyboard, r.Audio, r.Files)
	return r, nil
}

// Start schedules periodic sweeps. It does not block.
func (r *Relay) Start(ctx context.Context) error {
	return r.Sweeper.Schedule(ctx, r.opts.SweepSchedule)
}

// Close stops the sweeper and releases the blob repository. Stored files
// are not removed.
func (r *Relay) Close() error {
	r.Sweeper.Stop()
	if err := r.blobs.Close(); err != nil {
		return fmt.Errorf("close file storage: %w", err)
	}
	return nil
}

func (r *Relay) Horizon() time.Duration { return r.retention.Horizon() }

// SetHorizon changes the eviction horizon for subsequent sweeps.
func (r *Relay) SetHorizon(h time.Duration) {
	r.retention.SetHorizon(h)
	r.log.Info().Dur("horizon", r.retention.Horizon()).Msg("retention horizon changed")
}

func (r *Relay) Uptime() time.Duration { return r.opts.Clock.Now().Sub(r.started) }
