package capture

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"doorcam/internal/config"
	"doorcam/internal/logger"
	"doorcam/internal/models"
	"doorcam/internal/services/tasks"

	"gocv.io/x/gocv"
)

const (
	doorbellMessage      = "Someone is at your door! Photo saved."
	doorbellMessageNoPic = "Someone is at your door!"
	timeOfDayLayout      = "15:04:05"
)

// PhotoSaver persists a frame and returns the written file path.
type PhotoSaver interface {
	Save(frame gocv.Mat, at time.Time) (string, error)
}

// Publisher uploads a saved photo and returns its public URL, if any.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, bool)
}

// RemoteState is the dashboard the controller reports to.
type RemoteState interface {
	SetValue(ctx context.Context, pin, value string) bool
	LogEvent(ctx context.Context, code, description string) bool
}

// Controller decides which motion events become photos and fans the
// resulting side effects out to background tasks.
//
// OnFrame, ManualCapture and the command helpers must be called from a single
// goroutine (the main loop). Snapshot may be called from anywhere.
type Controller struct {
	cooldown time.Duration
	pins     config.BlynkConfig

	store     PhotoSaver
	publisher Publisher
	remote    RemoteState
	tasks     tasks.Runner
	logger    *logger.Logger

	// owned by the main loop
	state      models.ControllerState
	lastMotion time.Time
	triggered  bool

	// read by display and HTTP status
	photosTaken atomic.Int64
	lastURL     atomic.Pointer[string]
	stateView   atomic.Int32
	motionView  atomic.Pointer[time.Time]
}

func NewController(cfg *config.Config, store PhotoSaver, publisher Publisher, remote RemoteState, runner tasks.Runner, logger *logger.Logger) *Controller {
	return &Controller{
		cooldown:  cfg.Capture.Cooldown,
		pins:      cfg.Blynk,
		store:     store,
		publisher: publisher,
		remote:    remote,
		tasks:     runner,
		logger:    logger,
		state:     models.StateMonitoring,
	}
}

// OnFrame advances the cooldown clock and, if event is not nil and the
// controller is monitoring, captures the event's frame. It returns the photo
// taken, or nil.
func (c *Controller) OnFrame(event *models.MotionEvent, now time.Time) *models.Photo {
	if c.state == models.StateCooldown && c.ready(now) {
		c.setState(models.StateMonitoring)
	}

	if event == nil || c.state == models.StateCooldown {
		return nil
	}

	c.lastMotion = now
	c.triggered = true
	c.motionView.Store(&now)
	c.setState(models.StateCooldown)
	c.logger.Info("[MOTION] Person detected at door! (%d region(s))", len(event.Regions))

	photo := c.capture(event.Frame, now, models.TriggerMotion)
	c.ringDoorbell(photo != nil)
	return photo
}

// ManualCapture saves and publishes frame regardless of the cooldown. The
// cooldown state is left untouched.
func (c *Controller) ManualCapture(frame gocv.Mat, now time.Time) *models.Photo {
	return c.capture(frame, now, models.TriggerManual)
}

// SendNotification raises a dashboard event in the background.
func (c *Controller) SendNotification(description string) {
	c.tasks.Submit("notify", func(ctx context.Context) {
		c.remote.LogEvent(ctx, c.pins.EventCode, description)
	})
}

// SetLock drives the lock pin: 1 unlocks, 0 locks.
func (c *Controller) SetLock(unlocked bool) {
	value := "0"
	if unlocked {
		value = "1"
	}
	c.tasks.Submit("lock", func(ctx context.Context) {
		c.remote.SetValue(ctx, c.pins.LockPin, value)
	})
}

// Snapshot returns the current, possibly slightly stale, controller view.
func (c *Controller) Snapshot() models.Snapshot {
	s := models.Snapshot{
		State:        models.ControllerState(c.stateView.Load()),
		PhotosTaken:  c.photosTaken.Load(),
		LastMotionAt: c.motionView.Load(),
	}
	if u := c.lastURL.Load(); u != nil {
		s.LastPhotoURL = *u
	}
	return s
}

// State returns the controller state as seen by the main loop.
func (c *Controller) State() models.ControllerState {
	return c.state
}

func (c *Controller) ready(now time.Time) bool {
	return !c.triggered || now.Sub(c.lastMotion) > c.cooldown
}

func (c *Controller) setState(s models.ControllerState) {
	c.state = s
	c.stateView.Store(int32(s))
}

// capture writes the frame synchronously, then hands publishing to the
// background. A failed save is logged and yields nil.
func (c *Controller) capture(frame gocv.Mat, now time.Time, trigger models.Trigger) *models.Photo {
	path, err := c.store.Save(frame, now)
	if err != nil {
		c.logger.Error("[PHOTO] Failed to save %s photo: %v", trigger, err)
		return nil
	}
	c.photosTaken.Add(1)

	photo := &models.Photo{Path: path, CapturedAt: now, Trigger: trigger}
	c.tasks.Submit("publish "+filepath.Base(path), func(ctx context.Context) {
		c.publish(ctx, photo)
	})
	return photo
}

func (c *Controller) publish(ctx context.Context, photo *models.Photo) {
	stamp := photo.CapturedAt.Format(timeOfDayLayout)

	url, ok := c.publisher.Publish(ctx, photo.Path)
	if ok {
		photo.SetURL(url)
		c.lastURL.Store(&url)
		c.remote.SetValue(ctx, c.pins.PhotoURLPin, url)
		c.remote.SetValue(ctx, c.pins.PhotoTimePin, "📷 "+stamp)
		c.logger.Info("[BLYNK] ✅ Photo URL sent to %s", c.pins.PhotoURLPin)
		return
	}

	c.remote.SetValue(ctx, c.pins.PhotoURLPin, "Photo saved locally at "+stamp)
	c.remote.SetValue(ctx, c.pins.PhotoTimePin, "📷 "+stamp)
	c.logger.Info("Photo saved locally only: %s", photo.Path)
}

func (c *Controller) ringDoorbell(saved bool) {
	message := doorbellMessage
	if !saved {
		message = doorbellMessageNoPic
	}
	c.SendNotification(message)
	c.tasks.Submit("doorbell pin", func(ctx context.Context) {
		c.remote.SetValue(ctx, c.pins.DoorbellPin, "1")
	})
}
