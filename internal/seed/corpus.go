// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package seed

import (
	"fmt"
	"math/rand"
	"strings"
)

type company struct {
	name  string
	roles []string
}

var firstNames = []string{
	"Aarav", "Vivaan", "Aditya", "Vihaan", "Arjun", "Ishaan", "Rohan", "Karthik",
	"Rahul", "Aman", "Nikhil", "Kunal", "Varun", "Pranav", "Siddharth", "Abhishek",
	"Akash", "Saurabh", "Yash", "Manish", "Gaurav", "Rohit", "Deepak", "Vivek",
	"Aditi", "Ananya", "Riya", "Priya", "Sneha", "Pooja", "Shreya", "Tanvi",
	"Kavya", "Meera", "Isha", "Neha", "Kriti", "Divya", "Simran", "Mansi",
}

var lastNames = []string{
	"Sharma", "Verma", "Gupta", "Mehta", "Singh", "Patel", "Jain", "Iyer",
	"Nair", "Reddy", "Rao", "Das", "Banerjee", "Kulkarni", "Joshi", "Kapoor",
	"Malhotra", "Bansal", "Yadav", "Mishra", "Tiwari", "Agarwal", "Saxena",
	"Ghosh", "Mukherjee", "Menon", "Pillai", "Shetty", "Arora", "Pandey",
	"Srivastava", "Malik", "Thakur", "Bhat", "Sinha",
}

var colleges = []string{
	"IIT Delhi", "IIT Bombay", "IIT Madras", "IIT Kanpur", "IIT Kharagpur",
	"NIT Trichy", "NIT Warangal", "NIT Surathkal", "BITS Pilani", "BITS Goa",
	"VIT Vellore", "SRM KTR", "Manipal Institute of Technology",
	"IIIT Hyderabad", "IIIT Bangalore", "DTU", "NSUT", "PES University",
	"RV College of Engineering", "COEP Pune", "Jadavpur University",
	"Anna University", "Thapar Institute of Engineering", "PSG Tech",
}

var companies = []company{
	{"TCS", []string{"Assistant System Engineer", "Digital Engineer"}},
	{"Infosys", []string{"System Engineer", "Power Programmer"}},
	{"Wipro", []string{"Project Engineer", "Software Engineer"}},
	{"HCL", []string{"Software Engineer", "Graduate Engineer Trainee"}},
	{"Tech Mahindra", []string{"Associate Software Engineer", "Analyst"}},
	{"Cognizant", []string{"Programmer Analyst", "Associate"}},
	{"Accenture", []string{"Associate Software Engineer", "Business Analyst"}},
	{"Capgemini", []string{"Software Engineer", "Senior Analyst"}},
	{"IBM India", []string{"Software Engineer", "Data Engineer"}},
	{"Deloitte USI", []string{"Analyst", "Consultant"}},
	{"EY GDS", []string{"Technology Analyst", "Advisory Analyst"}},
	{"Oracle India", []string{"Software Engineer", "Cloud Engineer"}},
	{"SAP Labs India", []string{"Developer Associate", "QA Engineer"}},
	{"Adobe India", []string{"Software Engineer", "SDE Intern"}},
	{"Microsoft India", []string{"Software Engineer", "Support Engineer"}},
	{"Google India", []string{"Software Engineer", "SWE Intern"}},
	{"Amazon India", []string{"SDE", "SDE Intern"}},
	{"Flipkart", []string{"Software Engineer", "Backend Engineer"}},
	{"Paytm", []string{"Software Engineer", "Backend Engineer"}},
	{"PhonePe", []string{"Software Engineer", "Risk Analyst"}},
	{"Razorpay", []string{"Software Engineer", "SDE Intern"}},
	{"Swiggy", []string{"Software Engineer", "Data Analyst"}},
	{"Zomato", []string{"Software Engineer", "Product Analyst"}},
	{"Uber India", []string{"Software Engineer", "Support Engineer"}},
	{"Walmart Global Tech India", []string{"Software Engineer", "Data Engineer"}},
	{"Goldman Sachs India", []string{"Analyst", "Associate"}},
	{"J.P. Morgan India", []string{"Software Engineer", "Analyst"}},
	{"Morgan Stanley India", []string{"Technology Analyst", "Associate"}},
	{"DE Shaw India", []string{"Software Engineer", "Analyst"}},
	{"Nagarro", []string{"Software Engineer", "Full Stack Developer"}},
	{"Samsung R&D India", []string{"Software Engineer", "Research Engineer"}},
	{"Qualcomm India", []string{"Software Engineer", "Embedded Engineer"}},
	{"Cisco India", []string{"Software Engineer", "Network Engineer"}},
	{"Zoho", []string{"Member Technical Staff", "Software Engineer"}},
	{"Freshworks", []string{"Software Engineer", "Backend Engineer"}},
	{"InMobi", []string{"Data Engineer", "Software Engineer"}},
	{"MakeMyTrip", []string{"Software Engineer", "QA Engineer"}},
	{"Myntra", []string{"Software Engineer", "Frontend Engineer"}},
	{"Reliance Jio", []string{"Software Engineer", "Network Engineer"}},
	{"L&T Technology Services", []string{"Engineer Trainee", "Software Engineer"}},
}

var rounds = []string{
	"OA + 2 Technical + HR",
	"Aptitude + Coding + Technical + HR",
	"Coding Test + Technical + Managerial + HR",
	"OA + Technical + HR",
	"OA + Technical + System Design + HR",
	"Group Discussion + Technical + HR",
}

var difficulties = []string{"Easy", "Medium", "Hard"}

var projects = []string{
	"a resume parser using NLP",
	"a campus navigation app with React Native",
	"an e-commerce backend using Spring Boot",
	"a placement tracker built with Flask",
	"a personal finance dashboard in React",
	"a movie recommendation system using collaborative filtering",
	"a smart attendance system with face recognition",
	"a hostel management portal",
	"a food delivery clone API",
}

var topicSentences = map[string]string{
	"DSA":  "DSA questions covered arrays, binary search, graphs, and dynamic programming.",
	"DBMS": "DBMS discussion included SQL joins, normalization, indexes, and transactions.",
	"OS":   "OS concepts like process scheduling, threads, and deadlock were asked.",
	"CN":   "CN topics covered TCP vs UDP, HTTP, and DNS latency.",
	"OOP":  "OOP fundamentals like classes, objects, inheritance, polymorphism, and encapsulation were discussed.",
	"HR":   "HR questions included tell me about yourself, strengths/weakness, and a team conflict.",
}

var topicQuestions = map[string][]string{
	"DSA": {
		"Find the longest subarray with sum k in an array?",
		"Implement LRU cache using a hash map and doubly linked list?",
		"Detect a cycle in a linked list and explain complexity?",
		"Shortest path in a weighted graph using Dijkstra?",
		"DP on grid for minimum path sum?",
		"Binary search on answer for allocation problem?",
	},
	"DBMS": {
		"What is normalization? Explain 1NF, 2NF, 3NF?",
		"Write SQL to fetch the second highest salary?",
		"Difference between clustered and non-clustered index?",
		"Explain ACID properties and transactions?",
		"Explain inner join vs left join in SQL?",
	},
	"OS": {
		"What is a process vs thread?",
		"Explain deadlock and prevention?",
		"CPU scheduling algorithms like RR and SJF?",
		"Explain paging and virtual memory?",
	},
	"CN": {
		"TCP vs UDP differences?",
		"Explain HTTP vs HTTPS handshake?",
		"DNS resolution flow?",
		"Explain the TCP three-way handshake?",
	},
	"OOP": {
		"Explain OOP pillars: encapsulation, inheritance, polymorphism, abstraction?",
		"Difference between interface and abstract class?",
		"Explain method overloading vs overriding?",
		"Design a class for a parking lot?",
	},
	"HR": {
		"Tell me about yourself?",
		"Why this company?",
		"Describe a conflict in a team project?",
		"What are your strengths and weaknesses?",
		"Where do you see yourself in 3 years?",
	},
}

// topicCombos keeps DSA dominant the way real placement rounds skew.
var topicCombos = [][]string{
	{"DSA", "DBMS", "HR"},
	{"DSA", "OS", "HR"},
	{"DSA", "CN", "HR"},
	{"DSA", "OOP", "HR"},
	{"DSA", "DBMS", "OS", "HR"},
	{"DSA", "DBMS", "CN"},
	{"DBMS", "OOP", "HR"},
	{"DSA", "OS", "CN"},
	{"DSA", "DBMS", "OOP", "HR"},
	{"DSA", "CN", "OOP"},
	{"DSA", "DBMS", "OS"},
	{"DSA", "HR"},
	{"DSA", "DBMS"},
	{"DBMS", "CN", "HR"},
}

var dsaFocuses = []string{
	"graphs and BFS",
	"dynamic programming on grids",
	"binary search on answer",
	"arrays and hashing",
	"trees and recursion",
	"stack and queue applications",
}

var introTemplates = []string{
	"I am %[1]s from %[2]s. I sat for %[3]s as a %[4]s through campus placements in %[5]d.",
	"%[3]s visited our campus in %[5]d for the %[4]s role. I'm %[1]s from %[2]s.",
	"My %[5]d campus interview at %[3]s for %[4]s started with multiple rounds. I am %[1]s from %[2]s.",
}

var oaTemplates = []string{
	"Online test had aptitude, basic DSA, and SQL MCQs. The coding question was on %s.",
	"OA included two coding problems and a short DBMS quiz on normalization and indexes.",
	"First round was a timed coding test with arrays and binary search plus a CN section on TCP/HTTP.",
}

var techTemplates = []string{
	"Technical round focused on %s and OOP fundamentals like inheritance and polymorphism.",
	"They asked about OS process scheduling and deadlock, then a coding problem on %s.",
	"Interviewers went deep into DBMS transactions, SQL joins, and indexing, followed by a graph problem.",
	"A system design discussion covered REST APIs, caching, and network latency.",
}

var hrTemplates = []string{
	"HR round asked, 'Tell me about yourself?' and 'Why %s?'.",
	"They asked about strengths/weakness, a team conflict, and career goals.",
	"HR was friendly with questions about leadership, challenges, and culture fit.",
}

var tips = []string{
	"Revise DSA patterns, DBMS basics, and keep a project story ready.",
	"Practice arrays, graphs, and be crisp with SQL queries.",
	"Prepare OS and CN fundamentals along with OOP concepts.",
	"Communicate your approach clearly and analyze time complexity.",
}

var years = []int{2019, 2020, 2021, 2022, 2023, 2024, 2025}

type record struct {
	DocID      string
	Name       string
	College    string
	Company    string
	Role       string
	Year       int
	Rounds     string
	Difficulty string
	Topics     []string
	DSAFocus   string
	Questions  []string
	RawText    string
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.Intn(len(items))]
}

// generate produces count deterministic records for a given rng seed.
func generate(count int, rng *rand.Rand) []record {
	records := make([]record, 0, count)
	for idx := 0; idx < count; idx++ {
		comp := pick(rng, companies)
		combo := pick(rng, topicCombos)
		topics := make([]string, 0, len(combo)+1)
		if !contains(combo, "DSA") {
			topics = append(topics, "DSA")
		}
		topics = append(topics, combo...)

		rec := record{
			DocID:      fmt.Sprintf("seed_%03d", idx),
			Name:       pick(rng, firstNames) + " " + pick(rng, lastNames),
			College:    pick(rng, colleges),
			Company:    comp.name,
			Role:       pick(rng, comp.roles),
			Year:       pick(rng, years),
			Rounds:     pick(rng, rounds),
			Difficulty: pick(rng, difficulties),
			Topics:     topics,
			DSAFocus:   pick(rng, dsaFocuses),
		}
		rec.Questions = pickQuestions(rec.Topics, rng)
		rec.RawText = buildRawText(rec, rng)
		records = append(records, rec)
	}
	return records
}

// pickQuestions draws one question per topic and pads with DSA up to four.
func pickQuestions(topics []string, rng *rand.Rand) []string {
	pool := make([]string, 0, 4)
	for _, topic := range []string{"DSA", "DBMS", "OS", "CN", "OOP", "HR"} {
		if contains(topics, topic) {
			pool = append(pool, pick(rng, topicQuestions[topic]))
		}
	}
	for len(pool) < 4 {
		pool = append(pool, pick(rng, topicQuestions["DSA"]))
	}
	return pool[:4]
}

func buildRawText(rec record, rng *rand.Rand) string {
	intro := fmt.Sprintf(pick(rng, introTemplates),
		rec.Name, rec.College, rec.Company, rec.Role, rec.Year)
	oa := sprintfMaybe(pick(rng, oaTemplates), rec.DSAFocus)
	tech := sprintfMaybe(pick(rng, techTemplates), rec.DSAFocus)
	hr := sprintfMaybe(pick(rng, hrTemplates), rec.Company)

	lines := []string{
		intro,
		"Rounds: " + rec.Rounds + ".",
		"Round 1 (OA): " + oa,
		"Round 2 (Technical): " + tech,
		"Round 3 (HR): " + hr,
	}
	for _, topic := range rec.Topics {
		lines = append(lines, topicSentences[topic])
	}
	lines = append(lines, fmt.Sprintf("Project discussion: I talked about %s and the tech stack choices.", pick(rng, projects)))
	lines = append(lines, "Questions asked:")
	for i, q := range rec.Questions {
		lines = append(lines, fmt.Sprintf("Q%d: %s", i+1, q))
	}
	lines = append(lines, fmt.Sprintf("Overall difficulty felt %s.", rec.Difficulty))
	lines = append(lines, "Tips: "+pick(rng, tips))

	return strings.Join(lines, "\n")
}

// sprintfMaybe formats templates that may or may not carry a verb slot.
func sprintfMaybe(tmpl, arg string) string {
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, arg)
	}
	return tmpl
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
