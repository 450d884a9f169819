package scope

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ScreenshotName = "!st.png"
	// ScreenshotLimit bounds the image transfer.
	ScreenshotLimit = 128000
	screenshotPath  = `"C:/st.png"`
)

// Screenshot stores a fast-acquisition screen image of the instrument in
// dir. The link must implement BulkReader since the image size is not
// announced. Trigger mode is set back to auto in every case.
func Screenshot(instrument Instrument, dir string, channel string, level string) (string, error) {
	bulk, ok := instrument.(BulkReader)
	if !ok {
		return "", fmt.Errorf("instrument link cannot read file transfers")
	}

	commands := []string{
		"trigger:a:level:" + channel + " " + level,
		"acquire:fastacq:state on",
		"pause 0.5",
		"save:image " + screenshotPath,
		"*wai",
		"filesystem:readfile " + screenshotPath,
	}
	if err := writeAll(instrument, commands); err != nil {
		return "", errors.Join(err, restoreAfterScreenshot(instrument))
	}

	image, err := bulk.ReadAvailable(ScreenshotLimit)
	if err != nil {
		return "", errors.Join(err, restoreAfterScreenshot(instrument))
	}
	if err := instrument.Write("*wai"); err != nil {
		logger.Error(fmt.Errorf("error after screenshot transfer: %w", err).Error())
	}

	path := filepath.Join(dir, ScreenshotName)
	if err := os.WriteFile(path, image, 0644); err != nil {
		return "", errors.Join(&ErrArtifactWrite{Path: path, Err: err}, restoreAfterScreenshot(instrument))
	}
	logger.Info("Screenshot captured successfully", "screenshot")
	return path, restoreAfterScreenshot(instrument)
}

func restoreAfterScreenshot(instrument Instrument) error {
	return errors.Join(
		instrument.Write("acquire:fastacq:state off"),
		instrument.Write("trigger:a:mode auto"),
	)
}
