package fyne

import (
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/goscope/internal/domain"
	"github.com/tejashwikalptaru/goscope/res"
)

// ShowAboutDialog displays the About dialog with the application version.
func ShowAboutDialog(window fyne.Window, version string) {
	content := container.NewVBox(
		widget.NewLabelWithStyle(version, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewRichTextFromMarkdown(res.AboutContent),
	)
	dialog.ShowCustom("About", "Close", content, window)
}

// ShowErrorDialog displays err. Device resolution failures list the devices
// that were available so the user can pick one by name.
func ShowErrorDialog(window fyne.Window, title string, err error) {
	message := ErrorMessage(err)
	dialog.ShowCustom(title, "OK", widget.NewLabel(message), window)
}

// ErrorMessage formats err for display.
func ErrorMessage(err error) string {
	var resErr *domain.DeviceResolutionError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &resErr):
		return resErr.Error() + "\n\nUse --device to select a device by name."
	case errors.Is(err, domain.ErrAlreadyRunning):
		return "Capture is already running."
	default:
		return err.Error()
	}
}
