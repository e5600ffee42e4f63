package models

type MealPlanRequest struct {
	DietType  string `json:"dietType"`
	Calories  int    `json:"calories"`
	Allergies string `json:"allergies"`
	Cuisine   string `json:"cuisine"`
	Snacks    bool   `json:"snacks"`
	Days      int    `json:"days,omitempty"`
}

type DayPlan struct {
	Day       string `json:"day"`
	Breakfast string `json:"breakfast"`
	Lunch     string `json:"lunch"`
	Dinner    string `json:"dinner"`
	Snacks    string `json:"snacks,omitempty"`
}

type MealPlan struct {
	Days []DayPlan `json:"days"`
}
