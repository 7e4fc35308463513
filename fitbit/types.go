package fitbit

// Profile is the authorized user's profile record.
type Profile struct {
	User struct {
		EncodedID         string  `json:"encodedId"`
		DisplayName       string  `json:"displayName"`
		FullName          string  `json:"fullName"`
		Age               int     `json:"age"`
		Gender            string  `json:"gender"`
		Height            float64 `json:"height"`
		Weight            float64 `json:"weight"`
		AverageDailySteps int     `json:"averageDailySteps"`
		MemberSince       string  `json:"memberSince"`
		Timezone          string  `json:"timezone"`
	} `json:"user"`
}

// ActivitySummary is the daily activity summary record.
type ActivitySummary struct {
	Summary struct {
		Steps                int `json:"steps"`
		CaloriesOut          int `json:"caloriesOut"`
		ActivityCalories     int `json:"activityCalories"`
		SedentaryMinutes     int `json:"sedentaryMinutes"`
		LightlyActiveMinutes int `json:"lightlyActiveMinutes"`
		FairlyActiveMinutes  int `json:"fairlyActiveMinutes"`
		VeryActiveMinutes    int `json:"veryActiveMinutes"`
		RestingHeartRate     int `json:"restingHeartRate,omitempty"`
		Distances            []struct {
			Activity string  `json:"activity"`
			Distance float64 `json:"distance"`
		} `json:"distances"`
	} `json:"summary"`
	Goals struct {
		Steps       int     `json:"steps"`
		CaloriesOut int     `json:"caloriesOut"`
		Distance    float64 `json:"distance"`
	} `json:"goals"`
}

// SleepLog is the sleep log record for one date.
type SleepLog struct {
	Sleep []struct {
		LogID               int64  `json:"logId"`
		DateOfSleep         string `json:"dateOfSleep"`
		StartTime           string `json:"startTime"`
		EndTime             string `json:"endTime"`
		Duration            int64  `json:"duration"`
		Efficiency          int    `json:"efficiency"`
		IsMainSleep         bool   `json:"isMainSleep"`
		MinutesAsleep       int    `json:"minutesAsleep"`
		MinutesAwake        int    `json:"minutesAwake"`
		MinutesToFallAsleep int    `json:"minutesToFallAsleep"`
		TimeInBed           int    `json:"timeInBed"`
	} `json:"sleep"`
	Summary struct {
		TotalMinutesAsleep int `json:"totalMinutesAsleep"`
		TotalSleepRecords  int `json:"totalSleepRecords"`
		TotalTimeInBed     int `json:"totalTimeInBed"`
	} `json:"summary"`
}

// HeartRateSeries is the heart-rate time series record.
type HeartRateSeries struct {
	ActivitiesHeart []struct {
		DateTime string `json:"dateTime"`
		Value    struct {
			RestingHeartRate int `json:"restingHeartRate,omitempty"`
			HeartRateZones   []struct {
				Name        string  `json:"name"`
				Min         int     `json:"min"`
				Max         int     `json:"max"`
				Minutes     int     `json:"minutes"`
				CaloriesOut float64 `json:"caloriesOut"`
			} `json:"heartRateZones"`
		} `json:"value"`
	} `json:"activities-heart"`
}
