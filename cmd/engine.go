package cmd

import (
	"strings"

	"github.com/dh1tw/audioEngine/audio/device"
	"github.com/dh1tw/audioEngine/audio/player"
	"github.com/dh1tw/audioEngine/audio/recorder"
	"github.com/spf13/viper"
)

func newHost() *device.Host {
	api, err := getHostAPI(viper.GetString("audio.host-api"))
	if err != nil {
		exit(err)
	}
	host, err := device.NewHost(api)
	if err != nil {
		exit(err)
	}
	return host
}

func playerOptions() []player.Option {
	//values checked before
	gating, _ := player.ParseGating(strings.ToLower(viper.GetString("audio.gating")))

	opts := []player.Option{
		player.Channels(viper.GetInt("audio.output-channels")),
		player.FramesPerBuffer(viper.GetInt("audio.frames-per-buffer")),
		player.WithGating(gating),
	}

	if viper.IsSet("player.volume") {
		opts = append(opts, player.Volume(float32(viper.GetFloat64("player.volume"))))
	}
	opts = append(opts,
		player.Loop(viper.GetBool("player.loop")),
		player.Muted(viper.GetBool("player.muted")),
	)

	return opts
}

func recorderOptions() []recorder.Option {
	opts := []recorder.Option{
		recorder.DeviceName(viper.GetString("recorder.device")),
	}
	if viper.IsSet("recorder.retained-samples") {
		opts = append(opts, recorder.RetainedSamples(viper.GetInt("recorder.retained-samples")))
	}
	return opts
}
