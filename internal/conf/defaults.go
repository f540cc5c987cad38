// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "PeopleCount")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "peoplecount.log")
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("hub.host", "127.0.0.1")
	viper.SetDefault("hub.dataport", 7777)
	viper.SetDefault("hub.cmdport", 7780)
	viper.SetDefault("hub.interval", 0.0)
	viper.SetDefault("hub.usedepthinput", false)

	viper.SetDefault("hub.capture.width", 640)
	viper.SetDefault("hub.capture.height", 480)
	viper.SetDefault("hub.capture.fps", 30)
	viper.SetDefault("hub.capture.simulate", false)
	viper.SetDefault("hub.capture.serials", []string{})

	viper.SetDefault("hub.detector.modelpath", "model/person_topview.tflite")
	viper.SetDefault("hub.detector.confidence", 0.55)
	viper.SetDefault("hub.detector.inputwidth", 640)
	viper.SetDefault("hub.detector.inputheight", 480)
	viper.SetDefault("hub.detector.threads", 0)
	viper.SetDefault("hub.detector.usexnnpack", true)

	viper.SetDefault("hub.depth.minmm", 300)
	viper.SetDefault("hub.depth.maxmm", 4500)
	viper.SetDefault("hub.depth.auto", false)
	viper.SetDefault("hub.depth.plow", 5.0)
	viper.SetDefault("hub.depth.phigh", 95.0)
	viper.SetDefault("hub.depth.refreshsec", 0.0)

	viper.SetDefault("hub.export.enabled", false)
	viper.SetDefault("hub.export.path", "test_img")

	viper.SetDefault("hub.telemetry.enabled", false)
	viper.SetDefault("hub.telemetry.listen", "0.0.0.0:8090")

	viper.SetDefault("hub.mqtt.enabled", false)
	viper.SetDefault("hub.mqtt.broker", "tcp://127.0.0.1:1883")
	viper.SetDefault("hub.mqtt.topic", "peoplecount/snapshots")
	viper.SetDefault("hub.mqtt.username", "")
	viper.SetDefault("hub.mqtt.password", "")

	viper.SetDefault("router.hubhost", "127.0.0.1")
	viper.SetDefault("router.dataport", 7777)
	viper.SetDefault("router.cmdport", 7780)

	viper.SetDefault("router.osc.inport", 5001)
	viper.SetDefault("router.osc.milluminhost", "127.0.0.1")
	viper.SetDefault("router.osc.milluminport", 5000)
	viper.SetDefault("router.osc.dispatch", false)

	viper.SetDefault("router.telemetry.enabled", false)
	viper.SetDefault("router.telemetry.listen", "0.0.0.0:8091")
}
