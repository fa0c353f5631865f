//lint:file-ignore SA1019 using deprecated text package for Draw
package app

import (
	"errors"
	"image/color"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"github.com/Eltensy/newvictoryweb-sub000/api"
	"github.com/Eltensy/newvictoryweb-sub000/typedef"
)

// ToastSeverity drives the accent color of a notification.
type ToastSeverity int8

const (
	ToastInfo ToastSeverity = iota
	ToastWarning
	ToastError
)

// Toast is a single transient notification.
type Toast struct {
	ID          string
	Text        string
	Severity    ToastSeverity
	AutoCloseAt time.Time
	CreatedAt   time.Time
}

// ToastManager stacks transient notifications in the bottom-right corner. All
// claim-flow failures surface here; none are fatal to the session.
type ToastManager struct {
	toasts      []*Toast
	maxToasts   int
	toastWidth  int
	toastHeight int
	margin      int
}

// NewToastManager creates an empty stack.
func NewToastManager() *ToastManager {
	return &ToastManager{
		maxToasts:   5,
		toastWidth:  320,
		toastHeight: 44,
		margin:      10,
	}
}

// Show pushes a notification that auto-dismisses after the duration.
func (tm *ToastManager) Show(message string, severity ToastSeverity, duration time.Duration) {
	toast := &Toast{
		ID:          uuid.NewString(),
		Text:        message,
		Severity:    severity,
		CreatedAt:   time.Now(),
		AutoCloseAt: time.Now().Add(duration),
	}

	tm.toasts = append(tm.toasts, toast)
	if len(tm.toasts) > tm.maxToasts {
		tm.toasts = tm.toasts[len(tm.toasts)-tm.maxToasts:]
	}
}

// ShowInfo displays a short informational notice.
func (tm *ToastManager) ShowInfo(message string) { tm.Show(message, ToastInfo, 3*time.Second) }

// ShowWarning displays a claim rejection the user needs to see.
func (tm *ToastManager) ShowWarning(message string) { tm.Show(message, ToastWarning, 4*time.Second) }

// ShowError displays a failure with a retry suggestion.
func (tm *ToastManager) ShowError(message string) { tm.Show(message, ToastError, 5*time.Second) }

// NotifyClaimFailure applies the suppression policy: benign conflicts (full
// spot, lost race) stay silent because an idempotent re-click is expected;
// network failures get the generic retry notice; everything else surfaces the
// rejection text as a warning.
func (tm *ToastManager) NotifyClaimFailure(err error) {
	if err == nil {
		return
	}

	var claimErr *api.ClaimError
	if errors.As(err, &claimErr) {
		if claimErr.Rejection.Benign() {
			log.Printf("[TOAST] Suppressing benign claim conflict: %v", claimErr)
			return
		}
		if claimErr.Rejection == typedef.RejectNetworkFailure {
			tm.ShowError("Connection problem, please try again")
			return
		}
		tm.ShowWarning(claimErr.Rejection.String())
		return
	}

	if errors.Is(err, typedef.ErrNoCredential) {
		tm.ShowWarning(typedef.RejectNotEligible.String())
		return
	}
	tm.ShowError("Connection problem, please try again")
}

// Update expires auto-close toasts.
func (tm *ToastManager) Update() {
	now := time.Now()
	kept := tm.toasts[:0]
	for _, t := range tm.toasts {
		if now.Before(t.AutoCloseAt) {
			kept = append(kept, t)
		}
	}
	tm.toasts = kept
}

// Active returns how many toasts are on screen.
func (tm *ToastManager) Active() int { return len(tm.toasts) }

func (t *Toast) accent() color.RGBA {
	switch t.Severity {
	case ToastWarning:
		return color.RGBA{255, 180, 40, 255}
	case ToastError:
		return color.RGBA{255, 80, 80, 255}
	default:
		return color.RGBA{70, 130, 255, 255}
	}
}

// Draw renders the stack bottom-up in the lower right corner.
func (tm *ToastManager) Draw(screen *ebiten.Image) {
	if len(tm.toasts) == 0 {
		return
	}

	screenW := screen.Bounds().Dx()
	screenH := screen.Bounds().Dy()
	background := color.RGBA{40, 40, 50, 240}

	for i, toast := range tm.toasts {
		slot := len(tm.toasts) - 1 - i
		x := screenW - tm.toastWidth - tm.margin
		y := screenH - (slot+1)*(tm.toastHeight+tm.margin)

		vector.DrawFilledRect(screen, float32(x), float32(y),
			float32(tm.toastWidth), float32(tm.toastHeight), background, false)
		vector.StrokeRect(screen, float32(x), float32(y),
			float32(tm.toastWidth), float32(tm.toastHeight), 2, toast.accent(), false)

		msg := toast.Text
		maxWidth := tm.toastWidth - 16
		for len(msg) > 0 && font.MeasureString(labelFace, msg).Ceil() > maxWidth {
			msg = msg[:len(msg)-1]
		}
		text.Draw(screen, msg, labelFace, x+8, y+tm.toastHeight/2+fontYOffset, color.RGBA{255, 255, 255, 255})
	}
}
