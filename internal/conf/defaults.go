// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "BirdWatch-Go")
	viper.SetDefault("main.timeas24h", true)
	viper.SetDefault("main.latitude", 0.000)
	viper.SetDefault("main.longitude", 0.000)
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "birdwatch.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("motion.source", "")
	viper.SetDefault("motion.threshold", 50)
	viper.SetDefault("motion.sensitivity", 50)
	viper.SetDefault("motion.cooldownms", 30000)
	viper.SetDefault("motion.mindurationms", 500)
	viper.SetDefault("motion.regions", []map[string]any{})
	viper.SetDefault("motion.clip.enabled", true)
	viper.SetDefault("motion.clip.path", "clips/")
	viper.SetDefault("motion.clip.duration", 15)
	viper.SetDefault("motion.clip.snapshot", true)

	viper.SetDefault("detector.source", "")
	viper.SetDefault("detector.minconfidence", 0.25)
	viper.SetDefault("detector.analysisinterval", 300)
	viper.SetDefault("detector.sampleduration", 15)
	viper.SetDefault("detector.locale", "en")
	viper.SetDefault("detector.analyzer.python", "python3")
	viper.SetDefault("detector.analyzer.path", "")
	viper.SetDefault("detector.capture.backend", "ffmpeg")
	viper.SetDefault("detector.capture.device", "sysdefault")
	viper.SetDefault("detector.capture.rtsptransport", "tcp")
	viper.SetDefault("detector.capture.temppath", "")

	viper.SetDefault("sightings.path", "sightings/sightings.json")
	viper.SetDefault("sightings.archivepath", "sightings/archive")
	viper.SetDefault("sightings.rarespeciesmaxcount", 3)

	viper.SetDefault("weather.provider", "none")
	viper.SetDefault("weather.pollinterval", 60)
	viper.SetDefault("weather.debug", false)
	viper.SetDefault("weather.openweather.apikey", "")
	viper.SetDefault("weather.openweather.endpoint", "https://api.openweathermap.org/data/2.5/weather")
	viper.SetDefault("weather.openweather.units", "metric")
	viper.SetDefault("weather.openweather.language", "en")

	viper.SetDefault("notification.enabled", false)
	viper.SetDefault("notification.urls", []string{})
	viper.SetDefault("notification.maxstored", 1000)

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic", "birdwatch")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.retain", false)

	viper.SetDefault("diag.enabled", false)
	viper.SetDefault("diag.listen", "0.0.0.0:8090")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
}
