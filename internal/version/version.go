package version

// Current is the release version reported by `mailer version`.
const Current = "0.1.0"
