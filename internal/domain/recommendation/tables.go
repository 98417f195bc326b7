package recommendation

// ══════════════════════════════════════════════════════════════════════════════
// STATIC KNOWLEDGE TABLES
// Таблицы только читаются. Порядок элементов значим: генератор берёт
// первые элементы списков.
// ══════════════════════════════════════════════════════════════════════════════

// defaultTeammateCompatibility - базовая оценка пары навыков, отсутствующей
// в baseCompatibility.
const defaultTeammateCompatibility = 0.80

// baseCompatibility - насколько хорошо работают вместе владельцы двух навыков.
var baseCompatibility = map[string]map[string]float64{
	"Swift": {
		"UI/UX Design":        0.95,
		"Backend Development": 0.90,
		"Product Management":  0.85,
	},
	"UI/UX Design": {
		"Frontend Development": 0.93,
		"User Research":        0.90,
		"Product Management":   0.88,
	},
	"Backend Development": {
		"Frontend Development": 0.92,
		"DevOps":               0.89,
		"Database Design":      0.87,
	},
	"Machine Learning": {
		"Data Science": 0.94,
		"Python":       0.91,
		"Statistics":   0.88,
	},
	"Python": {
		"Data Science":        0.90,
		"Machine Learning":    0.88,
		"Backend Development": 0.85,
	},
}

// skillProgression - следующие навыки для изучения.
var skillProgression = map[string][]string{
	"Swift":                {"SwiftUI", "Combine", "Core Data", "ARKit", "CloudKit"},
	"UI/UX Design":         {"Figma Advanced", "Design Systems", "User Research", "Prototyping", "Accessibility"},
	"Python":               {"Django", "FastAPI", "TensorFlow", "Docker", "AWS"},
	"React":                {"Next.js", "TypeScript", "React Native", "GraphQL", "Redux"},
	"JavaScript":           {"Node.js", "TypeScript", "Vue.js", "Express", "MongoDB"},
	"Machine Learning":     {"Deep Learning", "MLOps", "Computer Vision", "NLP", "PyTorch"},
	"Backend Development":  {"Microservices", "GraphQL", "Docker", "Kubernetes", "API Design"},
	"Frontend Development": {"TypeScript", "Progressive Web Apps", "Testing", "Performance Optimization"},
	"Mobile Development":   {"React Native", "Flutter", "Kotlin", "iOS", "Cross-platform"},
}

// projectIdea - идея проекта с базовой оценкой.
type projectIdea struct {
	Title       string
	Description string
	BaseScore   float64
}

// projectIdeas - идеи проектов по интересам. Генератор использует первую идею.
var projectIdeas = map[string][]projectIdea{
	"Hackathon": {
		{"AI-Powered Sustainability Challenge", "24-hour hackathon focused on environmental solutions using AI and machine learning", 0.90},
		{"Mobile Health Innovation Contest", "Develop mobile applications that improve healthcare accessibility", 0.85},
		{"Fintech Disruption Hackathon", "Create innovative financial technology solutions", 0.80},
	},
	"Mobile Development": {
		{"Cross-Platform Social App", "Build a social networking application using modern mobile frameworks", 0.88},
		{"AR Shopping Experience", "Create an augmented reality application for retail", 0.85},
		{"Fitness Tracking Ecosystem", "Develop a comprehensive health and fitness mobile platform", 0.82},
	},
	"Web Development": {
		{"Developer Community Platform", "Build a collaborative platform for developers to share projects and connect", 0.90},
		{"Real-time Collaboration Suite", "Create a comprehensive team productivity and collaboration tool", 0.87},
		{"E-commerce Analytics Dashboard", "Develop advanced analytics and business intelligence platform", 0.84},
	},
	"AI/ML": {
		{"Computer Vision for Accessibility", "AI system to help visually impaired users navigate", 0.92},
		{"Natural Language Processing Tool", "Smart text analysis and generation platform", 0.89},
		{"Predictive Analytics Platform", "Business intelligence tool with machine learning", 0.86},
	},
	"Design": {
		{"Design System Framework", "Create comprehensive design system for developers", 0.88},
		{"User Experience Research Tool", "Platform for conducting and analyzing UX research", 0.85},
		{"Accessibility Design Checker", "Tool to ensure digital accessibility compliance", 0.83},
	},
}

// event - событие и навыки, для которых оно релевантно.
type event struct {
	Title          string
	Description    string
	RelevantSkills []string
}

// events - фиксированный список событий, перебирается по порядку.
var events = []event{
	{"iOS Developer Meetup", "Connect with local iOS developers and learn about latest Swift developments", []string{"Swift", "Mobile Development"}},
	{"AI/ML Workshop Series", "Hands-on workshops covering machine learning and artificial intelligence", []string{"Machine Learning", "Python", "AI/ML"}},
	{"UX Design Conference", "Learn from industry leaders about user experience and design thinking", []string{"UI/UX Design", "Design"}},
	{"Startup Pitch Competition", "Present your ideas and connect with entrepreneurs and investors", []string{"Business", "Entrepreneurship"}},
	{"Open Source Contribution Day", "Learn how to contribute to open source projects and collaborate with global developers", []string{"Programming", "Collaboration"}},
	{"Web Development Bootcamp", "Intensive workshop on modern web development techniques", []string{"Web Development", "JavaScript", "React"}},
}

// learningPath - учебный трек.
type learningPath struct {
	Title       string
	Description string
	BaseScore   float64
}

// learningPaths - учебные треки по навыкам.
var learningPaths = map[string]learningPath{
	"Swift":               {"iOS Development Mastery", "Comprehensive path from beginner to advanced iOS development", 0.90},
	"Python":              {"Full-Stack Python Development", "Master backend development, data science, and automation", 0.88},
	"React":               {"Modern Frontend Engineering", "Advanced React patterns, performance optimization, and ecosystem", 0.86},
	"UI/UX Design":        {"User-Centered Design Systems", "Learn design thinking, research methods, and system design", 0.89},
	"Machine Learning":    {"AI/ML Engineering Track", "From fundamentals to production ML systems", 0.92},
	"Backend Development": {"Scalable Systems Architecture", "Design and build high-performance backend systems", 0.87},
	"DevOps":              {"Cloud Infrastructure Mastery", "Container orchestration, CI/CD, and cloud platforms", 0.85},
}
