package fakeapi

import (
	"fmt"

	"github.com/homeyum/yum/internal/api"
)

var sampleMeals = []struct{ name, description string }{
	{"Crispy Chili Tofu", "Cornstarch-dusted tofu tossed in chili crisp"},
	{"Miso Butter Ramen", "Instant noodles dressed up with miso and butter"},
	{"Sheet Pan Gnocchi", "Shelf-stable gnocchi roasted with cherry tomatoes"},
	{"Five Minute Shakshuka", "Eggs poached in a quick spiced tomato sauce"},
	{"Garlic Butter Salmon", "Pan-seared salmon with a lemon garlic glaze"},
	{"Smashed Cucumber Salad", "Cucumbers with soy, vinegar and sesame"},
	{"Peanut Noodle Bowl", "Cold noodles with a creamy peanut dressing"},
	{"Halloumi Tacos", "Griddled halloumi with pickled onions"},
	{"One Pot Orzo", "Orzo simmered with spinach and parmesan"},
	{"Korean Corn Cheese", "Sweet corn baked under mozzarella"},
	{"Mango Sticky Rice", "Coconut rice with ripe mango"},
	{"Chickpea Curry", "Pantry chickpeas in a coconut tomato curry"},
}

// SampleVideos returns n feed videos cycling through a fixed menu.
func SampleVideos(n int) []api.Video {
	out := make([]api.Video, n)
	for i := range out {
		meal := sampleMeals[i%len(sampleMeals)]
		id := fmt.Sprintf("v%03d", i+1)
		out[i] = api.Video{
			VideoID:          id,
			UserID:           "creator-" + fmt.Sprint(i%3+1),
			VideoTitle:       meal.name,
			VideoDescription: meal.description,
			MealName:         meal.name,
			MealDescription:  meal.description,
			VideoURL:         "https://www.youtube.com/shorts/" + id,
			ThumbnailURL:     "https://i.ytimg.com/vi/" + id + "/hq.jpg",
			Duration:         30 + i%4*10,
			UploadedAt:       fmt.Sprintf("2026-01-%02dT12:00:00Z", i%28+1),
			Source:           "upload",
		}
	}
	return out
}

// SampleSearch returns canned search results. Every third item is a
// landscape video without a #shorts tag, so the short-form filter has
// something to drop.
func SampleSearch(n int) []SearchItem {
	out := make([]SearchItem, n)
	for i := range out {
		meal := sampleMeals[i%len(sampleMeals)]
		item := SearchItem{
			VideoID:     fmt.Sprintf("yt%03d", i+1),
			Title:       meal.name + " #shorts",
			Description: meal.description,
			Width:       360,
			Height:      640,
		}
		if i%3 == 2 {
			item.Title = meal.name + " full tutorial"
			item.Width, item.Height = 1280, 720
		}
		out[i] = item
	}
	return out
}
