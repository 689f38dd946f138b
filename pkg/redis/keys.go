package redis

// DeviceStatusKey is the hash holding the last known state of the motion device.
// Fields: last_motion_at, last_device_timestamp, status, status_at
const DeviceStatusKey = "lumos:device:status"
