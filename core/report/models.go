package report

// ClassPerformance aggregates marks for one class.
type ClassPerformance struct {
	Class          string  `json:"class"`
	TotalMarks     int     `json:"total_marks"`
	AverageScore   float64 `json:"average_score"`
	PassPercentage float64 `json:"pass_percentage"`
	StudentCount   int     `json:"student_count"`
}

// TopStudent is one entry of a top-performers ranking.
type TopStudent struct {
	StudentID       string  `json:"student_id"`
	Name            string  `json:"name"`
	AdmissionNumber string  `json:"admission_number"`
	Class           string  `json:"class"`
	AverageScore    float64 `json:"average_score"`
}

type AdminDashboard struct {
	TotalStudents    int                `json:"total_students"`
	TotalClasses     int                `json:"total_classes"`
	SuccessRate      int                `json:"success_rate"`
	TopPerformers    []TopStudent       `json:"top_performers"`
	ClassPerformance []ClassPerformance `json:"class_performance"`
}

type TeacherDashboard struct {
	TotalMarks       int                `json:"total_marks"`
	SuccessRate      int                `json:"success_rate"`
	TopPerformers    []TopStudent       `json:"top_performers"`
	ClassPerformance []ClassPerformance `json:"class_performance"`
}
