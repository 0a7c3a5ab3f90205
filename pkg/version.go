package stlcat

// Version is the current stlcat release.
const Version = "0.1.0"
