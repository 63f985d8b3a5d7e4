// phspviewer is the desktop front end: pick a mode, pick a folder of phase
// space files, pick where to save the workbook.
package main

import (
	"context"
	"flag"
	"image/color"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/cmd/phspviewer/uihelpers"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/config"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/phsp"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/report"
	"github.com/thanhtaiphys/DBSCAN-StepByStep-Analyzer/src/run"
)

const (
	windowTitle = "Analyze Phase Space Files"
	welcomeText = "Welcome to Lee Lab"
	promptText  = "Select the type of phase space file you would like to analyze"
	buttonText  = "Select and Analyze Files"
)

type uiState struct {
	app        fyne.App
	window     fyne.Window
	configPath string
	mode       *widget.RadioGroup
	folder     *widget.Label
	status     *widget.Label
	button     *widget.Button
}

func main() {
	var configPath, logLevel string
	var closeAfter time.Duration
	flag.StringVar(&configPath, "config", config.DefaultPath, "YAML config file")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.DurationVar(&closeAfter, "close-after", 0, "Close the window after this long (smoke test of the display setup)")
	flag.Parse()
	if logLevel != "" {
		phsp.SetLogLevel(logLevel)
	}
	defer phsp.Sync()

	a := app.NewWithID("com.leelab.phspviewer")
	w := a.NewWindow(windowTitle)
	w.Resize(fyne.NewSize(600, 500))
	w.SetFixedSize(true)

	state := &uiState{app: a, window: w, configPath: configPath}
	w.SetContent(buildContent(state))
	if closeAfter > 0 {
		go func() {
			time.Sleep(closeAfter)
			phsp.Infof("[viewer] closing after %s", closeAfter)
			fyne.Do(func() { w.Close() })
		}()
	}
	w.ShowAndRun()
}

func buildContent(state *uiState) fyne.CanvasObject {
	welcome := canvas.NewText(welcomeText, color.NRGBA{R: 0, G: 0, B: 255, A: 255})
	welcome.TextStyle = fyne.TextStyle{Bold: true}
	welcome.TextSize = 18
	welcome.Alignment = fyne.TextAlignCenter

	prompt := widget.NewLabel(promptText)
	prompt.Alignment = fyne.TextAlignCenter
	prompt.Wrapping = fyne.TextWrapWord

	state.mode = widget.NewRadioGroup(uihelpers.ModeOptions(), nil)
	state.mode.Horizontal = false
	state.mode.Required = true
	last := state.app.Preferences().StringWithFallback("mode", string(phsp.ModeDBSCAN))
	state.mode.SetSelected(string(uihelpers.ModeFromSelection(last)))

	state.folder = widget.NewLabel("")
	state.folder.Alignment = fyne.TextAlignCenter
	state.status = widget.NewLabel("")
	state.status.Alignment = fyne.TextAlignCenter
	state.status.Wrapping = fyne.TextWrapWord

	state.button = widget.NewButton(buttonText, func() { startRun(state) })

	return container.NewVBox(
		welcome,
		prompt,
		container.NewCenter(state.mode),
		container.NewCenter(state.button),
		state.folder,
		state.status,
	)
}

func (s *uiState) setStatus(msg string) { s.status.SetText(msg) }

// startRun walks the two dialogs. Analysis runs inside the folder callback;
// the workbook and charts are written only from the save callback.
func startRun(state *uiState) {
	mode := uihelpers.ModeFromSelection(state.mode.Selected)
	state.app.Preferences().SetString("mode", string(mode))

	cfg, err := config.Load(state.configPath)
	if err != nil {
		showError(state, err)
		return
	}
	cfg.Mode = string(mode)
	cfg.InputDir = ""
	cfg.Output = ""
	rc, err := run.NewContext(cfg)
	if err != nil {
		showError(state, err)
		return
	}
	rc.Status = run.StatusFunc(state.setStatus)
	phsp.SetRunID(rc.ID)

	dialog.ShowFolderOpen(func(lu fyne.ListableURI, err error) {
		if err != nil {
			showError(state, err)
			return
		}
		if lu == nil {
			run.Canceled(rc, run.StatusOperationCanceled)
			return
		}
		rc.InputDir = lu.Path()
		state.folder.SetText(uihelpers.TruncatePath(rc.InputDir, 60))
		rep, err := run.Analyze(context.Background(), rc)
		if err != nil {
			state.setStatus(run.StatusFailed(err))
			showError(state, err)
			return
		}
		askSavePath(state, rc, rep)
	}, state.window)
}

func askSavePath(state *uiState, rc *run.Context, rep *report.Report) {
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil {
			showError(state, err)
			return
		}
		if wc == nil {
			run.Canceled(rc, run.StatusSaveCanceled)
			return
		}
		path := wc.URI().Path()
		_ = wc.Close()
		if fixed := run.EnsureXLSXExt(path); fixed != path {
			// the dialog already created the extensionless file
			_ = os.Remove(path)
		}
		if _, err := run.Commit(rc, rep, path); err != nil {
			showError(state, err)
		}
	}, state.window)
	fs.SetFileName(run.DefaultReportName(rc.Mode))
	fs.SetFilter(storage.NewExtensionFileFilter([]string{".xlsx"}))
	if lu, err := storage.ListerForURI(storage.NewFileURI(rc.InputDir)); err == nil {
		fs.SetLocation(lu)
	}
	fs.Show()
}

func showError(state *uiState, err error) {
	if err == nil {
		return
	}
	phsp.Errorf("[viewer] %v", err)
	dialog.ShowError(err, state.window)
}
