// conf/consts.go hard coded constants
package conf

const (
	SampleRate  = 48000 // Sample rate of the audio fed to the acoustic classifier
	BitDepth    = 16    // Bit depth of the audio fed to the acoustic classifier
	NumChannels = 1     // Number of channels of the audio fed to the acoustic classifier
)
