package features

// Engineered composite signals derived from raw records during
// preprocessing. They supplement the canonical vector for analysis and
// reporting but are not part of the model contract.

func WorkIntensity(workHours, meetingHours, overtimeHours float64) float64 {
	return workHours*0.4 + meetingHours*0.3 + overtimeHours*0.3
}

func StressComposite(stress, workload, deadline float64) float64 {
	return stress*0.4 + workload*0.3 + deadline*0.3
}

func WorkLifeRatio(workHours, balance float64) float64 {
	return workHours / (balance + 1)
}

func CommunicationLoad(emails, meetingHours float64) float64 {
	return emails*0.6 + meetingHours*0.4
}

// CompositeNames lists the engineered columns in the order Composites
// appends them.
func CompositeNames() []string {
	return []string{"work_intensity", "stress_composite", "work_life_ratio", "communication_load"}
}

// Composites computes all engineered signals from a canonical vector.
func Composites(vec []float64) []float64 {
	if len(vec) < Count {
		return nil
	}
	wh := vec[0]
	meetings := vec[1]
	emails := vec[2]
	stress := vec[3]
	workload := vec[4]
	balance := vec[5]
	overtime := vec[8]
	deadline := vec[9]
	return []float64{
		WorkIntensity(wh, meetings, overtime),
		StressComposite(stress, workload, deadline),
		WorkLifeRatio(wh, balance),
		CommunicationLoad(emails, meetings),
	}
}
