package api

import "errors"

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (p MovePayload) Validate() error {
	if p.Col < 0 || p.Row < 0 {
		return errors.New("coordinates cannot be negative")
	}
	return nil
}

func (p TravelPayload) Validate() error {
	if p.DestSector == "" {
		return errors.New("destSector is required")
	}
	return nil
}

func (p BattleActionPayload) Validate() error {
	if p.BattleID == "" {
		return errors.New("battleId is required")
	}
	if p.Action == "" {
		return errors.New("action is required")
	}
	if p.Version < 0 {
		return errors.New("version cannot be negative")
	}
	return nil
}

func (p PathPayload) Validate() error {
	if p.Origin.Col < 0 || p.Origin.Row < 0 || p.Dest.Col < 0 || p.Dest.Row < 0 {
		return errors.New("coordinates cannot be negative")
	}
	return nil
}
