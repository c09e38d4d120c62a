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
	"io"
	"os"
	"text/template"

	"github.com/dh1tw/audioEngine/audio/device"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// enumerateCmd represents the enumerate command
var enumerateCmd = &cobra.Command{
	Use:   "enumerate",
	Short: "List all available audio devices of the selected host API",
	Long:  `List all available audio devices of the selected host API`,
	Run: func(cmd *cobra.Command, args []string) {
		readConfig()
		if err := enumerate(os.Stdout, newHost()); err != nil {
			exit(err)
		}
	},
}

func init() {
	RootCmd.AddCommand(enumerateCmd)
}

type hostAPIDevices struct {
	Name    string
	Devices []device.Info
}

var tmpl = template.Must(template.New("").Parse(
	`
Available audio devices:

	Host API:               {{.Name}}
	Detected {{.Devices | len}} device(s): {{range .Devices}}
		ID:                        {{.ID}}
		Name:                      {{.Name}}{{if .IsDefaultInput}} (default input){{end}}{{if .IsDefaultOutput}} (default output){{end}}
		MaxInputChannels:          {{.InputChannels}}
		MaxOutputChannels:         {{.OutputChannels}}
		PreferredSampleRate:       {{.PreferredSamplerate}}
	{{end}}
`,
))

// enumerate lists all available audio devices of a host
func enumerate(w io.Writer, host *device.Host) error {
	devices, err := host.Devices()
	if err != nil {
		return fmt.Errorf("unable to enumerate devices of host api %s: %w", viper.GetString("audio.host-api"), err)
	}

	return tmpl.Execute(w, hostAPIDevices{
		Name:    host.API(),
		Devices: devices,
	})
}
