package cmd

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dh1tw/audioEngine/audio/player"
	"github.com/dh1tw/audioEngine/audiofile"
	"github.com/dh1tw/audioEngine/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play a wav or mp3 file on the default output device",
	Long: `Play a wav or mp3 file on the default output device. The playback moves
to a new default output device (e.g. headphones) while playing.`,
	Args: cobra.ExactArgs(1),
	Run:  playFile,
}

func init() {
	RootCmd.AddCommand(playCmd)
	playCmd.Flags().Float32P("volume", "v", 1.0, "volume (1.0 = original level)")
	playCmd.Flags().BoolP("loop", "l", false, "loop the file")
	playCmd.Flags().BoolP("muted", "m", false, "start muted")
	playCmd.Flags().Float64P("start", "s", 0, "start position in seconds")
	playCmd.Flags().BoolP("tui", "t", false, "interactive terminal user interface")
}

func playFile(cmd *cobra.Command, args []string) {

	// bind the pflags to viper settings
	viper.BindPFlag("player.volume", cmd.Flags().Lookup("volume"))
	viper.BindPFlag("player.loop", cmd.Flags().Lookup("loop"))
	viper.BindPFlag("player.muted", cmd.Flags().Lookup("muted"))

	readConfig()

	pollInterval := viper.GetDuration("device.poll-interval")
	start, _ := cmd.Flags().GetFloat64("start")
	interactive, _ := cmd.Flags().GetBool("tui")

	data, err := audiofile.Load(args[0])
	if err != nil {
		exit(err)
	}

	p, err := player.New(newHost(), playerOptions()...)
	if err != nil {
		exit(err)
	}
	defer p.Close()

	if err := p.SetAudioData(data); err != nil {
		exit(err)
	}
	p.SetTime(start)

	if err := p.Play(); err != nil {
		exit(err)
	}

	if interactive {
		if err := tui.Run(p, filepath.Base(args[0]), data.Duration(), pollInterval); err != nil {
			exit(err)
		}
		return
	}

	log.Printf("playing %s (%.1fs, %d Hz, %d channel(s))\n",
		args[0], data.Duration(), data.Samplerate, data.Channels)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// Channel to handle OS signals
	osSignals := make(chan os.Signal, 1)
	//subscribe to os.Interrupt (CTRL-C signal)
	signal.Notify(osSignals, os.Interrupt)

	for {
		select {
		case <-osSignals:
			return
		case <-ticker.C:
			if err := p.UpdateDeviceIfNecessary(); err != nil {
				log.Println(err)
			}
			if p.Ended() {
				return
			}
		}
	}
}
