package vda

import "encoding/json"

// MissionDetail is the metadata of a mission version. Fields the scorer does not use are kept in
// Raw and written back unchanged.
type MissionDetail struct {
	MissionName string
	Pilot       string
	Raw         map[string]interface{}
}

func (m *MissionDetail) UnmarshalJSON(b []byte) error {
	raw := map[string]interface{}{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.Raw = raw
	m.MissionName, _ = raw["missionname"].(string)
	m.Pilot, _ = raw["pilot"].(string)
	return nil
}

func (m MissionDetail) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Raw)+2)
	for k, v := range m.Raw {
		out[k] = v
	}
	out["missionname"] = m.MissionName
	if m.Pilot != "" {
		out["pilot"] = m.Pilot
	}
	return json.Marshal(out)
}

// Name returns the mission name, or fallback when the mission has none.
func (m *MissionDetail) Name(fallback string) string {
	if m == nil || m.MissionName == "" {
		return fallback
	}
	return m.MissionName
}
