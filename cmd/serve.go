// Copyright © 2016 Tobias Wellnitz, DH1TW <Tobias.Wellnitz@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/dh1tw/audioEngine/audio/device"
	"github.com/dh1tw/audioEngine/audio/player"
	"github.com/dh1tw/audioEngine/audio/recorder"
	"github.com/dh1tw/audioEngine/audiofile"
	"github.com/dh1tw/audioEngine/webserver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Control the player and the recorder through a web interface",
	Long: `Start the player and the recorder and expose them through a REST api
and a websocket (/ws) which pushes the player state.`,
	Run: serve,
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("http-host", "w", "127.0.0.1", "Host (use '0.0.0.0' to listen on all network adapters)")
	serveCmd.Flags().IntP("http-port", "k", 9090, "Port to access the web interface")
	serveCmd.Flags().StringP("file", "f", "", "wav or mp3 file loaded into the player on startup")
	serveCmd.Flags().StringP("input-device", "i", "default", "input device name")
	serveCmd.Flags().BoolP("play-on-startup", "t", false, "start playing on startup")
	serveCmd.Flags().Bool("mdns", false, "announce the web interface via mDNS")
	serveCmd.Flags().String("mdns-name", "audioEngine", "instance name announced via mDNS")
}

func serve(cmd *cobra.Command, args []string) {

	// bind the pflags to viper settings
	viper.BindPFlag("http.host", cmd.Flags().Lookup("http-host"))
	viper.BindPFlag("http.port", cmd.Flags().Lookup("http-port"))
	viper.BindPFlag("recorder.device", cmd.Flags().Lookup("input-device"))
	viper.BindPFlag("http.mdns", cmd.Flags().Lookup("mdns"))
	viper.BindPFlag("http.mdns-name", cmd.Flags().Lookup("mdns-name"))

	readConfig()

	httpHost := viper.GetString("http.host")
	httpPort := viper.GetInt("http.port")
	pollInterval := viper.GetDuration("device.poll-interval")
	file, _ := cmd.Flags().GetString("file")
	playOnStartup, _ := cmd.Flags().GetBool("play-on-startup")

	host := newHost()

	p, err := player.New(host, playerOptions()...)
	if err != nil {
		exit(err)
	}
	defer p.Close()

	if file != "" {
		data, err := audiofile.Load(file)
		if err != nil {
			exit(err)
		}
		if err := p.SetAudioData(data); err != nil {
			exit(err)
		}
	}

	if playOnStartup {
		if err := p.Play(); err != nil {
			exit(err)
		}
	}

	// the web interface remains usable without a recording device
	var rec webserver.Recorder
	r, err := recorder.New(host, recorderOptions()...)
	switch {
	case err == nil:
		rec = r
		defer r.Close()
	case errors.Is(err, device.ErrUnknownDevice):
		exit(err)
	default:
		log.Println(err)
	}

	web, err := webserver.NewWebServer(httpHost, httpPort, p, rec)
	if err != nil {
		exit(err)
	}

	go func() {
		if err := web.Start(); err != nil {
			exit(err)
		}
	}()

	if viper.GetBool("http.mdns") {
		adv, err := webserver.Advertise(viper.GetString("http.mdns-name"), httpPort)
		if err != nil {
			log.Println(err)
		} else {
			defer adv.Stop()
		}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// Channel to handle OS signals
	osSignals := make(chan os.Signal, 1)
	//subscribe to os.Interrupt (CTRL-C signal)
	signal.Notify(osSignals, os.Interrupt)

	for {
		select {
		case <-osSignals:
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
			if err := web.Shutdown(ctx); err != nil {
				log.Println(err)
			}
			cancel()
			return

		case <-ticker.C:
			if err := p.UpdateDeviceIfNecessary(); err != nil {
				log.Println(err)
			}
			web.UpdateState()
		}
	}
}
