package controllers

import "time"

// timeFormat is the wire format for all timestamps in API responses.
const timeFormat = time.RFC3339
