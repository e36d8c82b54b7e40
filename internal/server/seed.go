package server

import (
	"log/slog"

	"gorm.io/gorm"
)

// Seed fills an empty database with the sample learning content:
// avatars, subjects with their level paths and questions, and badges.
// Seeding an already populated database is a no-op.
func Seed(db *gorm.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	var count int64
	if err := db.Model(&SubjectModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("database already seeded")
		return nil
	}

	if err := db.Create(seedAvatars()).Error; err != nil {
		return err
	}
	subjects := seedSubjects()
	if err := db.Create(subjects).Error; err != nil {
		return err
	}
	if err := db.Create(seedBadges()).Error; err != nil {
		return err
	}

	levels := 0
	for _, s := range subjects {
		levels += len(s.Levels)
	}
	logger.Info("database seeded", "subjects", len(subjects), "levels", levels)
	return nil
}

func seedAvatars() []AvatarModel {
	return []AvatarModel{
		{
			Name:              "Mango the Explorer",
			Description:       "A curious orange mango who loves adventures!",
			PersonalityTraits: []string{"curious", "brave", "helpful"},
			IsDefault:         true,
			IsActive:          true,
		},
		{
			Name:              "Luna the Wise Owl",
			Description:       "A clever owl who knows lots of interesting facts!",
			PersonalityTraits: []string{"wise", "patient", "encouraging"},
			IsActive:          true,
		},
		{
			Name:              "Rocket the Space Dog",
			Description:       "A friendly space dog who loves math and science!",
			PersonalityTraits: []string{"energetic", "playful", "smart"},
			IsActive:          true,
		},
		{
			Name:              "Coral the Sea Friend",
			Description:       "A gentle sea creature who loves languages and stories!",
			PersonalityTraits: []string{"gentle", "creative", "supportive"},
			IsActive:          true,
		},
	}
}

func seedSubjects() []*SubjectModel {
	return []*SubjectModel{
		{
			Name:            "Science",
			Slug:            "science",
			Description:     "Explore the wonders of nature and how things work!",
			Theme:           "science",
			BackgroundColor: "#10B981",
			AccentColor:     "#34D399",
			DisplayOrder:    1,
			IsActive:        true,
			Levels:          scienceLevels(),
		},
		{
			Name:            "Math",
			Slug:            "math",
			Description:     "Climb the mountain of numbers and shapes!",
			Theme:           "math",
			BackgroundColor: "#3B82F6",
			AccentColor:     "#60A5FA",
			DisplayOrder:    2,
			IsActive:        true,
			Levels:          mathLevels(),
		},
		{
			Name:            "Language",
			Slug:            "language",
			Description:     "Open the magical book of words and stories!",
			Theme:           "language",
			BackgroundColor: "#8B5CF6",
			AccentColor:     "#A78BFA",
			DisplayOrder:    3,
			IsActive:        true,
			Levels:          languageLevels(),
		},
		{
			Name:            "General Knowledge",
			Slug:            "general_knowledge",
			Description:     "Discover amazing facts about our world!",
			Theme:           "general_knowledge",
			BackgroundColor: "#F59E0B",
			AccentColor:     "#FCD34D",
			DisplayOrder:    4,
			IsActive:        true,
			Levels:          generalKnowledgeLevels(),
		},
	}
}

func scienceLevels() []LevelModel {
	return []LevelModel{
		{
			SubjectSlug:    "science",
			DisplayOrder:   1,
			Title:          "Plant a Seed",
			StoryText:      "Welcome to our garden! Let's start by planting a tiny seed and watch it grow into something amazing!",
			MinScoreToPass: 70,
			IsActive:       true,
			Questions: []QuestionModel{
				{
					DisplayOrder: 1,
					QuestionType: "multiple_choice",
					Title:        "What do plants need to grow?",
					Payload: map[string]any{
						"choices": []any{"Water and sunlight", "Only water", "Only air", "Nothing"},
					},
					CorrectAnswer:    []any{0},
					RewardPoints:     10,
					TimeLimitSeconds: 30,
					Explanation:      "Plants need water, sunlight, and air to grow healthy and strong!",
				},
				{
					DisplayOrder: 2,
					QuestionType: "image_choice",
					Title:        "Which of these is a seed?",
					Payload: map[string]any{
						"images": []any{"/media/images/seed.png", "/media/images/rock.png", "/media/images/leaf.png", "/media/images/flower.png"},
					},
					CorrectAnswer:    []any{0},
					RewardPoints:     10,
					TimeLimitSeconds: 30,
					HintText:         "Seeds are small and contain everything needed to grow a new plant!",
				},
			},
		},
		{
			SubjectSlug:           "science",
			DisplayOrder:          2,
			Title:                 "First Sprout",
			StoryText:             "Look! Your seed has started to grow! A tiny green sprout is pushing through the soil.",
			RequiredScoreToUnlock: 15,
			MinScoreToPass:        70,
			IsActive:              true,
			Questions: []QuestionModel{
				{
					DisplayOrder:     1,
					QuestionType:     "true_false",
					Title:            "Plants grow toward the light.",
					Payload:          map[string]any{"statement": "Plants grow toward the light"},
					CorrectAnswer:    true,
					RewardPoints:     15,
					TimeLimitSeconds: 30,
					Explanation:      "Yes! Plants grow toward light because they need it to make food.",
				},
			},
		},
		{
			SubjectSlug:           "science",
			DisplayOrder:          3,
			Title:                 "Growing Leaves",
			StoryText:             "Your plant is getting bigger! Beautiful green leaves are opening up to catch the sunlight.",
			RequiredScoreToUnlock: 35,
			MinScoreToPass:        70,
			IsActive:              true,
			Questions: []QuestionModel{
				{
					DisplayOrder: 1,
					QuestionType: "drag_drop",
					Title:        "Match the plant parts to their functions",
					Payload: map[string]any{
						"items":   []any{"Leaves", "Roots", "Stem"},
						"targets": []any{"Make food from sunlight", "Drink water from soil", "Support the plant"},
					},
					CorrectAnswer:    []any{[]any{0, 0}, []any{1, 1}, []any{2, 2}},
					RewardPoints:     20,
					TimeLimitSeconds: 45,
				},
			},
		},
		{
			SubjectSlug:           "science",
			DisplayOrder:          4,
			Title:                 "Beautiful Flowers",
			StoryText:             "Amazing! Your plant has grown colorful flowers that will attract bees and butterflies!",
			RequiredScoreToUnlock: 60,
			MinScoreToPass:        70,
			IsActive:              true,
			Questions: []QuestionModel{
				{
					DisplayOrder: 1,
					QuestionType: "multiple_choice",
					Title:        "Why do flowers have bright colors?",
					Payload: map[string]any{
						"choices": []any{"To look pretty", "To attract insects", "To scare animals", "No reason"},
					},
					CorrectAnswer:    []any{1},
					RewardPoints:     25,
					TimeLimitSeconds: 30,
					Explanation:      "Flowers have bright colors to attract bees and other insects that help plants make seeds!",
				},
			},
		},
		{
			SubjectSlug:           "science",
			DisplayOrder:          5,
			Title:                 "Mighty Tree",
			StoryText:             "Congratulations! Your tiny seed has grown into a mighty tree that will live for many years!",
			RequiredScoreToUnlock: 90,
			MinScoreToPass:        70,
			IsActive:              true,
			Questions: []QuestionModel{
				{
					DisplayOrder: 1,
					QuestionType: "fill_blank",
					Title:        "Trees give us fresh _____ to breathe.",
					Payload: map[string]any{
						"sentence": "Trees give us fresh _____ to breathe.",
						"options":  []any{"oxygen", "water", "food", "light"},
					},
					CorrectAnswer:    "oxygen",
					RewardPoints:     30,
					TimeLimitSeconds: 30,
					Explanation:      "Trees make oxygen from carbon dioxide, giving us fresh air to breathe!",
				},
			},
		},
	}
}

func mathLevels() []LevelModel {
	return []LevelModel{
		{
			SubjectSlug:    "math",
			DisplayOrder:   1,
			Title:          "Base Camp - Counting",
			StoryText:      "Welcome to Math Mountain! Let's start our climb by learning to count at base camp.",
			MinScoreToPass: 70,
			IsActive:       true,
			Questions: []QuestionModel{
				{
					DisplayOrder: 1,
					QuestionType: "multiple_choice",
					Title:        "How many apples do you see?",
					Payload: map[string]any{
						"choices": []any{"2", "3", "4", "5"},
						"images":  []any{"/media/images/three_apples.png"},
					},
					CorrectAnswer:    []any{1},
					RewardPoints:     10,
					TimeLimitSeconds: 30,
				},
				{
					DisplayOrder: 2,
					QuestionType: "drag_drop",
					Title:        "Put the numbers in order",
					Payload: map[string]any{
						"items":   []any{"3", "1", "4", "2"},
						"targets": []any{"First", "Second", "Third", "Fourth"},
					},
					CorrectAnswer:    []any{[]any{1, 0}, []any{3, 1}, []any{0, 2}, []any{2, 3}},
					RewardPoints:     15,
					TimeLimitSeconds: 45,
				},
			},
		},
		{
			SubjectSlug:           "math",
			DisplayOrder:          2,
			Title:                 "First Checkpoint - Addition",
			StoryText:             "Great job! Now let's learn to add numbers together as we climb higher.",
			RequiredScoreToUnlock: 20,
			MinScoreToPass:        70,
			IsActive:              true,
			Questions: []QuestionModel{
				{
					DisplayOrder:     1,
					QuestionType:     "multiple_choice",
					Title:            "What is 2 + 3?",
					Payload:          map[string]any{"choices": []any{"4", "5", "6", "7"}},
					CorrectAnswer:    []any{1},
					RewardPoints:     15,
					TimeLimitSeconds: 30,
				},
				{
					DisplayOrder:     2,
					QuestionType:     "true_false",
					Title:            "1 + 1 equals 2.",
					Payload:          map[string]any{"statement": "1 + 1 equals 2"},
					CorrectAnswer:    true,
					RewardPoints:     10,
					TimeLimitSeconds: 20,
				},
			},
		},
		{
			SubjectSlug:           "math",
			DisplayOrder:          3,
			Title:                 "Mid Mountain - Shapes",
			StoryText:             "Halfway up! The mountain is full of interesting shapes. Can you name them?",
			RequiredScoreToUnlock: 45,
			MinScoreToPass:        70,
			IsActive:              true,
			Questions: []QuestionModel{
				{
					DisplayOrder: 1,
					QuestionType: "image_choice",
					Title:        "Which shape is a triangle?",
					Payload: map[string]any{
						"images": []any{"/media/images/triangle.png", "/media/images/circle.png", "/media/images/square.png", "/media/images/star.png"},
					},
					CorrectAnswer:    []any{0},
					RewardPoints:     20,
					TimeLimitSeconds: 30,
					HintText:         "A triangle has three sides!",
				},
			},
		},
	}
}

func languageLevels() []LevelModel {
	return []LevelModel{
		{
			SubjectSlug:    "language",
			DisplayOrder:   1,
			Title:          "The Book Opens",
			StoryText:      "A magical storybook has opened! Help the letters find their way home.",
			MinScoreToPass: 70,
			IsActive:       true,
			Questions: []QuestionModel{
				{
					DisplayOrder: 1,
					QuestionType: "multiple_choice",
					Title:        "Which word starts with the letter B?",
					Payload: map[string]any{
						"choices": []any{"Apple", "Ball", "Cat", "Dog"},
					},
					CorrectAnswer:    []any{1},
					RewardPoints:     10,
					TimeLimitSeconds: 30,
				},
				{
					DisplayOrder: 2,
					QuestionType: "fill_blank",
					Title:        "The cat sat on the _____.",
					Payload: map[string]any{
						"sentence": "The cat sat on the _____.",
						"options":  []any{"mat", "sky", "sun", "sea"},
					},
					CorrectAnswer:    "mat",
					RewardPoints:     15,
					TimeLimitSeconds: 30,
				},
			},
		},
		{
			SubjectSlug:           "language",
			DisplayOrder:          2,
			Title:                 "Rhyme Time",
			StoryText:             "The next page is full of rhymes! Words that sound alike love to play together.",
			RequiredScoreToUnlock: 20,
			MinScoreToPass:        70,
			IsActive:              true,
			Questions: []QuestionModel{
				{
					DisplayOrder: 1,
					QuestionType: "multiple_choice",
					Title:        "Which word rhymes with 'cake'?",
					Payload: map[string]any{
						"choices": []any{"Lake", "Cook", "Moon", "Tree"},
					},
					CorrectAnswer:    []any{0},
					RewardPoints:     15,
					TimeLimitSeconds: 30,
					Explanation:      "Cake and lake both end with the same 'ake' sound!",
				},
			},
		},
	}
}

func generalKnowledgeLevels() []LevelModel {
	return []LevelModel{
		{
			SubjectSlug:    "general_knowledge",
			DisplayOrder:   1,
			Title:          "Our Amazing World",
			StoryText:      "Spin the globe! Let's discover the continents and oceans of our planet.",
			MinScoreToPass: 70,
			IsActive:       true,
			Questions: []QuestionModel{
				{
					DisplayOrder: 1,
					QuestionType: "multiple_choice",
					Title:        "What is the largest ocean?",
					Payload: map[string]any{
						"choices": []any{"Atlantic", "Pacific", "Indian", "Arctic"},
					},
					CorrectAnswer:    []any{1},
					RewardPoints:     15,
					TimeLimitSeconds: 30,
					Explanation:      "The Pacific Ocean is the biggest ocean on Earth!",
				},
				{
					DisplayOrder:     2,
					QuestionType:     "true_false",
					Title:            "The Sun is a star.",
					Payload:          map[string]any{"statement": "The Sun is a star"},
					CorrectAnswer:    true,
					RewardPoints:     10,
					TimeLimitSeconds: 20,
					Explanation:      "Yes! The Sun is the closest star to Earth.",
				},
			},
		},
	}
}

func seedBadges() []BadgeModel {
	return []BadgeModel{
		{
			Name:         "First Steps",
			Description:  "Complete your very first level!",
			BadgeType:    "completion",
			Criteria:     map[string]any{"levels_completed": 1},
			PointsReward: 10,
			RarityLevel:  1,
			IsActive:     true,
		},
		{
			Name:         "Green Thumb",
			Description:  "Finish every level in the Science garden!",
			BadgeType:    "completion",
			Criteria:     map[string]any{"subject": "science", "levels_completed": 5},
			PointsReward: 50,
			RarityLevel:  3,
			IsActive:     true,
		},
		{
			Name:         "Perfect Score",
			Description:  "Get every question right in a level!",
			BadgeType:    "performance",
			Criteria:     map[string]any{"score": 100},
			PointsReward: 25,
			RarityLevel:  2,
			IsActive:     true,
		},
		{
			Name:         "Week Streak",
			Description:  "Play every day for a whole week!",
			BadgeType:    "streak",
			Criteria:     map[string]any{"streak_days": 7},
			PointsReward: 40,
			RarityLevel:  3,
			IsActive:     true,
		},
	}
}
