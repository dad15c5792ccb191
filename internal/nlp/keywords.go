// Archivus - Interview Experience Archive and Analytics
// Copyright 2026 Placement Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placementlabs/archivus

package nlp

// Keyword tables driving topic classification. Matching is substring
// based over lowercased text; a topic's score is the number of its
// keywords present.

var codingKeywords = []string{
	"algorithm", "array", "string", "linked list", "tree", "graph",
	"dp", "dynamic programming", "recursion", "binary search", "hash",
	"stack", "queue", "heap", "trie", "leetcode", "complexity",
	"optimize", "coding", "sort", "search", "traversal", "bfs", "dfs",
	"sliding window", "two pointer",
}

var hrKeywords = []string{
	"introduce yourself", "tell me about yourself", "strength",
	"weakness", "why", "team", "conflict", "leadership", "challenge",
	"goal", "salary", "culture", "project", "motivation",
}

var topicKeywords = map[string][]string{
	"DSA":  codingKeywords,
	"DBMS": {"dbms", "database", "sql", "normalization", "transaction", "index", "join", "query"},
	"OS":   {"operating system", "os", "process", "thread", "deadlock", "scheduling", "paging", "virtual memory"},
	"CN":   {"network", "cn", "tcp", "udp", "http", "dns", "latency", "handshake", "routing"},
	"OOP":  {"oop", "class", "object", "inheritance", "polymorphism", "encapsulation", "abstraction", "interface", "overloading", "overriding"},
	"System Design": {"system design", "scalability", "caching", "load balancer",
		"microservice", "rest api", "architecture"},
	"HR": hrKeywords,
}

// topicOrder fixes iteration order so classification is deterministic
// when topics tie on score.
var topicOrder = []string{"DSA", "DBMS", "OS", "CN", "OOP", "System Design", "HR"}
