package model

type DashboardStats struct {
	Tasks    TaskStats    `json:"tasks"`
	Projects ProjectStats `json:"projects"`
}

type TaskStats struct {
	Total    int            `json:"total"`
	Urgent   int            `json:"urgent"`
	Overdue  int            `json:"overdue"`
	ByStatus map[Status]int `json:"byStatus"`
}

type ProjectStats struct {
	Total int `json:"total"`
}
