package model

import "time"

// FloorMapImage is the single stored venue map.  Data holds either a
// base64 payload or a URL; the service never interprets the image.
type FloorMapImage struct {
    ID        uint64    `json:"id"`
    Filename  string    `json:"filename"`
    Data      string    `json:"data"`
    MimeType  string    `json:"mimeType"`
    Size      int       `json:"size"`
    CreatedAt time.Time `json:"createdAt"`
}
