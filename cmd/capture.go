package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dh1tw/audioEngine/audio"
	"github.com/dh1tw/audioEngine/audio/recorder"
	"github.com/dh1tw/audioEngine/audio/vox"
	"github.com/dh1tw/audioEngine/audiofile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record audio from an input device and print its level",
	Long: `Record audio from an input device and print the RMS and peak level of the
most recent samples. The vox reports when the level exceeds the threshold.
On exit, the retained samples can be written into a wav file.`,
	Run: capture,
}

func init() {
	RootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringP("input-device", "i", "default", "input device name")
	captureCmd.Flags().IntP("retained-samples", "r", 48000, "amount of most recent samples which are kept")
	captureCmd.Flags().IntP("window", "n", 2048, "amount of samples for the level measurement")
	captureCmd.Flags().Duration("interval", time.Millisecond*100, "measurement interval")
	captureCmd.Flags().Float32("vox-threshold", 0.1, "vox RMS threshold [0...1]")
	captureCmd.Flags().Duration("vox-holdtime", time.Millisecond*500, "vox hold time")
	captureCmd.Flags().StringP("out", "o", "", "write the retained samples into this wav file on exit")
	captureCmd.Flags().Int("bit-depth", 16, "bit depth of the wav file (16, 24, 32)")
}

func capture(cmd *cobra.Command, args []string) {

	// bind the pflags to viper settings
	viper.BindPFlag("recorder.device", cmd.Flags().Lookup("input-device"))
	viper.BindPFlag("recorder.retained-samples", cmd.Flags().Lookup("retained-samples"))

	readConfig()

	window, _ := cmd.Flags().GetInt("window")
	interval, _ := cmd.Flags().GetDuration("interval")
	voxThreshold, _ := cmd.Flags().GetFloat32("vox-threshold")
	voxHoldTime, _ := cmd.Flags().GetDuration("vox-holdtime")
	outFile, _ := cmd.Flags().GetString("out")
	bitDepth, _ := cmd.Flags().GetInt("bit-depth")

	if window < 1 || interval <= 0 {
		exit(&parmError{parm: "window / interval", msg: "values must be > 0"})
	}

	r, err := recorder.New(newHost(), recorderOptions()...)
	if err != nil {
		exit(err)
	}
	defer r.Close()

	if r.RetainedSamples() < window {
		r.SetRetainedSamples(window)
	}

	v := vox.New(
		vox.Threshold(voxThreshold),
		vox.HoldTime(voxHoldTime),
		vox.StateChanged(func(on bool) {
			fmt.Println()
			log.Println("vox:", on)
		}),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Channel to handle OS signals
	osSignals := make(chan os.Signal, 1)
	//subscribe to os.Interrupt (CTRL-C signal)
	signal.Notify(osSignals, os.Interrupt)

	for {
		select {
		case <-osSignals:
			fmt.Println()
			if outFile == "" {
				return
			}
			n, err := saveCapture(r, outFile, bitDepth)
			if err != nil {
				exit(err)
			}
			log.Printf("%d samples written to %s\n", n, outFile)
			return

		case <-ticker.C:
			snapshot := r.Snapshot(window)
			v.Process(snapshot.Samples)
			fmt.Printf("\r%s: rms %.3f peak %.3f", r.CurrentDeviceName(),
				audio.RMS(snapshot.Samples), audio.Peak(snapshot.Samples))
		}
	}
}

var errNoInputDevice = errors.New("no input device opened, nothing to write")

// saveCapture writes the retained samples of r into a wav file and returns
// the amount of samples written.
func saveCapture(r *recorder.Recorder, path string, bitDepth int) (int, error) {
	if r.Samplerate() == 0 {
		return 0, errNoInputDevice
	}
	snapshot := r.Snapshot(r.RetainedSamples())
	if err := audiofile.SaveWav(path, snapshot, bitDepth); err != nil {
		return 0, err
	}
	return len(snapshot.Samples), nil
}
