package hydro

import (
	"fmt"
	"strings"
)

// Render formats a response as plain text for conversational clients.
func Render(resp IntegratedResponse) string {
	if resp.Status != ResponseSuccess {
		return resp.Message
	}
	var b strings.Builder
	b.WriteString(resp.DirectAnswer)
	if resp.Summary != "" && resp.Summary != resp.DirectAnswer {
		b.WriteString("\n")
		b.WriteString(resp.Summary)
	}
	if st := resp.PrimaryStation; st != nil {
		fmt.Fprintf(&b, "\n관측소: %s (%s, %s)", st.Name, st.Code, st.Kind)
	}
	if data := resp.DetailedData; data != nil {
		if data.Dam != nil && !data.Dam.ObservedAt.IsZero() {
			fmt.Fprintf(&b, "\n관측 시각: %s", data.Dam.ObservedAt.Format("2006-01-02 15:04"))
		} else if data.WaterLevelStation != nil && !data.WaterLevelStation.ObservedAt.IsZero() {
			fmt.Fprintf(&b, "\n관측 시각: %s", data.WaterLevelStation.ObservedAt.Format("2006-01-02 15:04"))
		} else if data.Rainfall != nil && !data.Rainfall.ObservedAt.IsZero() {
			fmt.Fprintf(&b, "\n관측 시각: %s", data.Rainfall.ObservedAt.Format("2006-01-02 15:04"))
		}
		if len(data.RelatedDams) > 0 {
			names := make([]string, 0, len(data.RelatedDams))
			for _, dam := range data.RelatedDams {
				names = append(names, dam.Name)
			}
			fmt.Fprintf(&b, "\n%s 수계의 다른 댐: %s", data.Watershed, strings.Join(names, ", "))
		}
	}
	return b.String()
}
