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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "audioEngine",
	Short: "Real-time audio playback and capture",
	Long: `audioEngine plays audio files on the default output device and records
audio from an input device. The playback follows the default output device
(e.g. when headphones are plugged in).`,
}

// Execute adds all child commands to the root command sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.audioEngine.yaml)")
	RootCmd.PersistentFlags().StringP("host-api", "a", "default", "audio host API (portaudio, malgo)")
	RootCmd.PersistentFlags().Int("output-channels", 2, "amount of output channels (1 = mono, 2 = stereo)")
	RootCmd.PersistentFlags().Int("frames-per-buffer", 0, "frames per buffer of the output stream (0 = backend default)")
	RootCmd.PersistentFlags().String("gating", "silence", "pause by emitting 'silence' or by stopping the 'stream'")
	RootCmd.PersistentFlags().Duration("poll-interval", time.Millisecond*500, "interval for checking the default output device")

	viper.BindPFlag("audio.host-api", RootCmd.PersistentFlags().Lookup("host-api"))
	viper.BindPFlag("audio.output-channels", RootCmd.PersistentFlags().Lookup("output-channels"))
	viper.BindPFlag("audio.frames-per-buffer", RootCmd.PersistentFlags().Lookup("frames-per-buffer"))
	viper.BindPFlag("audio.gating", RootCmd.PersistentFlags().Lookup("gating"))
	viper.BindPFlag("device.poll-interval", RootCmd.PersistentFlags().Lookup("poll-interval"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" { // enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".audioEngine") // name of config file (without extension)
	}

	viper.SetEnvPrefix("audioengine")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// readConfig tries to read the config file and validates the parameters.
func readConfig() {
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("no config file found")
		} else {
			fmt.Fprintf(os.Stderr, "Error parsing config file %v: %v\n",
				viper.ConfigFileUsed(), err)
			os.Exit(1)
		}
	}

	// check if values from config file / pflags are valid
	if err := checkAudioParameterValues(); err != nil {
		exit(err)
	}
}

// exit prints the error to stderr and returns with exit code 1
func exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
