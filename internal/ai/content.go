package ai

import "github.com/bhupeshcoding/codecoach/models"

// Canned content served by the producer. Everything here is fixed data; the
// only nondeterminism is which element gets picked.

var topProblems = []models.Problem{
	{
		ID:             1,
		Title:          "Two Sum",
		Difficulty:     models.DifficultyEasy,
		Description:    "Find two numbers that add up to a target sum",
		Motivation:     "Perfect starting point! Master this fundamental pattern.",
		Tags:           []string{"Array", "Hash Table"},
		AcceptanceRate: 0.49,
		Frequency:      0.95,
	},
	{
		ID:             2,
		Title:          "Add Two Numbers",
		Difficulty:     models.DifficultyMedium,
		Description:    "Add two numbers represented as linked lists",
		Motivation:     "Linked lists are everywhere! This builds essential skills.",
		Tags:           []string{"Linked List", "Math"},
		AcceptanceRate: 0.38,
		Frequency:      0.85,
	},
	{
		ID:             3,
		Title:          "Longest Substring Without Repeating Characters",
		Difficulty:     models.DifficultyMedium,
		Description:    "Find the longest substring without repeating characters",
		Motivation:     "Sliding window technique - a game changer!",
		Tags:           []string{"String", "Sliding Window"},
		AcceptanceRate: 0.33,
		Frequency:      0.90,
	},
	{
		ID:             4,
		Title:          "Median of Two Sorted Arrays",
		Difficulty:     models.DifficultyHard,
		Description:    "Find median of two sorted arrays in O(log(m+n)) time",
		Motivation:     "Binary search mastery! You've got this challenge!",
		Tags:           []string{"Array", "Binary Search"},
		AcceptanceRate: 0.35,
		Frequency:      0.75,
	},
	{
		ID:             5,
		Title:          "Longest Palindromic Substring",
		Difficulty:     models.DifficultyMedium,
		Description:    "Find the longest palindromic substring",
		Motivation:     "Palindromes are beautiful! Master dynamic programming here.",
		Tags:           []string{"String", "Dynamic Programming"},
		AcceptanceRate: 0.32,
		Frequency:      0.80,
	},
}

// TopProblems returns a copy of the built-in catalog.
func TopProblems() []models.Problem {
	out := make([]models.Problem, len(topProblems))
	copy(out, topProblems)
	return out
}

// recommendationPool is the fixed candidate set the recommender filters.
var recommendationPool = []models.Recommendation{
	{ID: 1, Title: "Two Sum", Difficulty: models.DifficultyEasy},
	{ID: 2, Title: "Add Two Numbers", Difficulty: models.DifficultyMedium},
	{ID: 3, Title: "Longest Substring", Difficulty: models.DifficultyMedium},
	{ID: 4, Title: "Median of Two Sorted Arrays", Difficulty: models.DifficultyHard},
	{ID: 5, Title: "Longest Palindromic Substring", Difficulty: models.DifficultyMedium},
}

var leetcodeResponses = []string{
	"Let's tackle this LeetCode problem step by step!",
	"Great choice! This problem will help you master important algorithms.",
	"Here's a strategic approach to solve this efficiently.",
	"Remember: understanding the problem is half the solution!",
	"Let's optimize this solution for better time complexity.",
}

var generalResponses = []string{
	"I'm here to help you succeed in your coding journey!",
	"Let's work together to solve this challenge.",
	"Your dedication to learning is inspiring!",
	"Every line of code you write makes you a better programmer.",
	"Keep pushing forward - you're making great progress!",
}

// tokenWords is the fixed word sequence streamed token by token.
var tokenWords = []string{
	"Solving", "this", "LeetCode", "problem", "requires", "understanding",
	"data", "structures", "and", "algorithms.", "Let's", "break", "it", "down:",
	"First,", "analyze", "the", "problem", "constraints.", "Then,", "choose",
	"the", "optimal", "approach.", "Consider", "time", "and", "space", "complexity.",
}

// solutionParts is the fixed explanation streamed for any problem id.
var solutionParts = []string{
	"**Problem Analysis**\n",
	"Let's break down this problem step by step.\n\n",
	"**Approach**\n",
	"We'll use an optimal algorithm to solve this efficiently.\n\n",
	"**Key Insights**\n",
	"The main insight is to recognize the pattern in the problem.\n\n",
	"**Implementation**\n",
	"Here's the clean, optimized solution:\n\n",
	"```python\n",
	"def solution(nums):\n",
	"    # Your optimized code here\n",
	"    return result\n",
	"```\n\n",
	"**Complexity Analysis**\n",
	"Time: O(n), Space: O(1)\n\n",
	"**Pro Tips**\n",
	"Remember to consider edge cases and test thoroughly!",
}

var defaultQuotes = []string{
	"Every expert was once a beginner. Keep coding!",
	"The only way to learn programming is by writing programs.",
	"Code is like humor. When you have to explain it, it's bad.",
	"Programming isn't about what you know; it's about what you can figure out.",
	"The best error message is the one that never shows up.",
	"Debugging is twice as hard as writing the code in the first place.",
	"Talk is cheap. Show me the code.",
	"Any fool can write code that a computer can understand. Good programmers write code that humans can understand.",
	"First, solve the problem. Then, write the code.",
	"Experience is the name everyone gives to their mistakes.",
}

var defaultTips = []string{
	"Break down complex problems into smaller, manageable pieces",
	"Practice coding every day, even if it's just for 30 minutes",
	"Read other people's code to learn different approaches",
	"Don't be afraid to ask for help when you're stuck",
	"Test your code thoroughly with different inputs",
	"Write clean, readable code that your future self will thank you for",
	"Learn to use debugging tools effectively",
	"Understand the problem before you start coding",
	"Comment your code to explain the 'why', not just the 'what'",
	"Keep learning new technologies and programming paradigms",
}

// DefaultQuotes returns the built-in quote pool (used as the seed set).
func DefaultQuotes() []string {
	out := make([]string, len(defaultQuotes))
	copy(out, defaultQuotes)
	return out
}

// DefaultTips returns the built-in tip pool (used as the seed set).
func DefaultTips() []string {
	out := make([]string, len(defaultTips))
	copy(out, defaultTips)
	return out
}
