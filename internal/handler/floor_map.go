package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seatplan/internal/service"
)

// FloorMapHandler serves /v1/floor-map.
type FloorMapHandler struct {
    FloorMap *service.FloorMapService
}

func NewFloorMapHandler(f *service.FloorMapService) *FloorMapHandler {
    return &FloorMapHandler{FloorMap: f}
}

func (h *FloorMapHandler) Get(c echo.Context) error {
    img, err := h.FloorMap.Get(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, img)
}

func (h *FloorMapHandler) Put(c echo.Context) error {
    var req struct {
        Filename string `json:"filename"`
        MimeType string `json:"mimeType"`
        Data     string `json:"data"`
    }
    if err := c.Bind(&req); err != nil {
        return fail(c, http.StatusBadRequest, "invalid request body")
    }
    img, err := h.FloorMap.Replace(c.Request().Context(), req.Filename, req.MimeType, req.Data)
    if err != nil {
        return respondError(c, err)
    }
    return ok(c, img)
}
