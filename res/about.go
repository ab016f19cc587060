package res

// AboutContent contains the Markdown content for the About dialog.
// This is maintained separately for easy updates.
const AboutContent = `A real-time audio visualizer built with Go and Fyne.

**Features:**
- Live waveform of the microphone or desktop audio
- Decibel spectrum on a logarithmic frequency axis
- Loopback device discovery on Windows, macOS and Linux
- Optional websocket feed of every analyzed block
`
