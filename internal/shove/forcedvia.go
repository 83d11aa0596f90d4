package shove

import (
	"pcb-router/internal/item"
	"pcb-router/internal/rules"
	"pcb-router/pkg/geometry"
)

// ViaRequest describes a via to force onto the board.
type ViaRequest struct {
	Padstack       *item.Padstack
	Location       geometry.Point2D
	Nets           []int
	ClearanceClass int
	AttachSmd      bool
	// TraceHalfWidths holds per layer the half width of a trace starting at
	// the via; zero means none. The pen shape of such a trace is forced in
	// together with the pad.
	TraceHalfWidths     []float64
	TraceClearanceClass int
	Depth               int
	ViaDepth            int
}

// padTile returns the shape forced in for the pad of req on layer.
func (s *Shover) padTile(req ViaRequest, layer int) geometry.TileShape {
	shape := req.Padstack.ShapeOn(layer)
	if shape.IsEmpty() {
		return shape
	}
	return s.restrictTile(shape.Translate(req.Location))
}

// CheckVia reports whether a via can be placed at req.Location by shoving
// the obstacles on all its layers aside. On failure the failing obstacle
// and layer are recorded.
func (s *Shover) CheckVia(req ViaRequest) bool {
	for layer := req.Padstack.FromLayer; layer <= req.Padstack.ToLayer; layer++ {
		tile := s.padTile(req, layer)
		if tile.IsEmpty() {
			continue
		}
		verdict := s.CheckForcedPad(PadRequest{
			Shape:          tile,
			From:           s.calcFromSide(tile, req.Location, layer, s.MinTraceHalfWidth, req.ClearanceClass),
			Layer:          layer,
			Nets:           req.Nets,
			ClearanceClass: req.ClearanceClass,
			CopperSharing:  req.AttachSmd,
			Depth:          req.Depth,
			ViaDepth:       req.ViaDepth,
		})
		if verdict == NotDrillable {
			id, _ := s.board.FailingObstacle()
			s.board.SetFailingObstacle(id, layer)
			return false
		}
	}
	return true
}

// InsertVia shoves the obstacles aside and inserts the via. It returns nil
// on failure; the board may then be partly changed.
func (s *Shover) InsertVia(req ViaRequest) *item.Via {
	for layer := req.Padstack.FromLayer; layer <= req.Padstack.ToLayer; layer++ {
		tile := s.padTile(req, layer)
		if tile.IsEmpty() {
			continue
		}
		ok := s.ForcedPad(PadRequest{
			Shape:          tile,
			From:           s.calcFromSide(tile, req.Location, layer, s.MinTraceHalfWidth, req.ClearanceClass),
			Layer:          layer,
			Nets:           req.Nets,
			ClearanceClass: req.ClearanceClass,
			CopperSharing:  req.AttachSmd,
			Depth:          req.Depth,
			ViaDepth:       req.ViaDepth,
		})
		if !ok {
			id, _ := s.board.FailingObstacle()
			s.board.SetFailingObstacle(id, layer)
			return nil
		}
		if layer < len(req.TraceHalfWidths) && req.TraceHalfWidths[layer] > 0 {
			pen := s.penShape(req.Location, req.TraceHalfWidths[layer])
			ok := s.ForcedPad(PadRequest{
				Shape:          pen,
				From:           s.calcFromSide(pen, req.Location, layer, s.MinTraceHalfWidth, req.TraceClearanceClass),
				Layer:          layer,
				Nets:           req.Nets,
				ClearanceClass: req.TraceClearanceClass,
				CopperSharing:  true,
				Depth:          req.Depth,
				ViaDepth:       req.ViaDepth,
			})
			if !ok {
				id, _ := s.board.FailingObstacle()
				s.board.SetFailingObstacle(id, layer)
				return nil
			}
		}
		for _, c := range tile.Corners() {
			s.board.JoinChangedArea(c, layer)
		}
	}
	return s.board.InsertVia(req.Location, req.Padstack, req.Nets, req.ClearanceClass, item.Unfixed)
}

// penShape returns the shape of a trace end of half width hw at p.
func (s *Shover) penShape(p geometry.Point2D, hw float64) geometry.TileShape {
	if s.angle() == rules.Angle90 {
		return geometry.NewBox(geometry.NewRect(p.X-hw, p.Y-hw, 2*hw, 2*hw))
	}
	return geometry.RegularOctagon(p, hw)
}
