package cmd

import (
	"fmt"
	"strings"

	"github.com/dh1tw/audioEngine/audio/device"
	"github.com/dh1tw/audioEngine/audio/player"
	"github.com/spf13/viper"
)

func checkAudioParameterValues() error {

	if _, err := getHostAPI(viper.GetString("audio.host-api")); err != nil {
		return &parmError{
			parm: "audio.host-api",
			msg:  "allowed values are " + strings.Join(append([]string{"default"}, device.HostAPIs()...), ", "),
		}
	}

	if chs := viper.GetInt("audio.output-channels"); chs < 1 || chs > 2 {
		return &parmError{
			parm: "audio.output-channels",
			msg:  "allowed values are [1 (Mono), 2 (Stereo)]",
		}
	}

	if viper.GetInt("audio.frames-per-buffer") < 0 {
		return &parmError{
			parm: "audio.frames-per-buffer",
			msg:  "value must be >= 0",
		}
	}

	if _, ok := player.ParseGating(strings.ToLower(viper.GetString("audio.gating"))); !ok {
		return &parmError{
			parm: "audio.gating",
			msg:  "allowed values are silence, stream",
		}
	}

	if viper.GetDuration("device.poll-interval") <= 0 {
		return &parmError{
			parm: "device.poll-interval",
			msg:  "value must be > 0",
		}
	}

	if viper.IsSet("player.volume") && viper.GetFloat64("player.volume") < 0 {
		return &parmError{
			parm: "player.volume",
			msg:  "value must be >= 0",
		}
	}

	if viper.IsSet("recorder.retained-samples") && viper.GetInt("recorder.retained-samples") < 0 {
		return &parmError{
			parm: "recorder.retained-samples",
			msg:  "value must be >= 0",
		}
	}

	if viper.IsSet("http.port") {
		if port := viper.GetInt("http.port"); port < 1 || port > 65535 {
			return &parmError{
				parm: "http.port",
				msg:  "allowed values are [1...65535]",
			}
		}
	}

	return nil
}

type parmError struct {
	parm string
	msg  string
}

func (p *parmError) Error() string {
	return fmt.Sprintf("%v: %v\n", p.parm, p.msg)
}

// getHostAPI validates the name of a host API (typically read from
// application settings) and returns its canonical name.
func getHostAPI(api string) (string, error) {
	switch strings.ToLower(api) {
	case "", "default", "portaudio":
		return "portaudio", nil
	case "malgo", "miniaudio":
		return "malgo", nil
	}
	return "", fmt.Errorf("%w: %s", device.ErrUnknownHostAPI, api)
}
