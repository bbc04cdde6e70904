package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/xhad/muffin/pkg/rag"
)

func getProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("recettes"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// indexProgress renders the index build as a progress bar on w.
func indexProgress(w io.Writer) func(records int) rag.ProgressFunc {
	return func(records int) rag.ProgressFunc {
		bar := getProgressBar(w, records, "La Cheffe prépare sa cuisine... (Initialisation)")
		return func(done, total int) {
			bar.Set(done) //nolint:errcheck
			if done == total {
				bar.Finish() //nolint:errcheck
			}
		}
	}
}
