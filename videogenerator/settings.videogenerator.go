package videogenerator

// FramePattern names frame files inside the frames directory, as ffmpeg
// reads them back.
const FramePattern = "fr%05d.png"

const framesDirName = "frames"

// progressEvery reports compositing progress every this many seconds of video.
const progressEvery = 30

const (
	audioFileName   = "audio.wav"
	trimmedFileName = "audio_trimmed.wav"
	videoFileName   = "video.mp4"
)

// ffmpeg encoding settings.
const (
	videoPreset = "veryfast"
	videoCodec  = "libx264"
	pixelFormat = "yuv420p"
	videoTune   = "animation"
)
