package bank

func builtin(id, text, category string, typ Type) Question {
	return Question{ID: id, Text: text, Category: category, Type: typ}
}

// Builtin returns the shipped question set for category.
func Builtin(category string) []Question {
	var out []Question
	for _, q := range builtinQuestions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out
}

var builtinQuestions = []Question{
	builtin("ux-beh-1", "Can you walk me through your design background and career path?", CategoryUXDesign, TypeBackground),
	builtin("ux-beh-2", "What type of products have you primarily designed for?", CategoryUXDesign, TypeBackground),
	builtin("ux-beh-3", "How do you usually collaborate with product managers and engineers?", CategoryUXDesign, TypeBackground),
	builtin("ux-beh-4", "Which design tools do you use most, and why?", CategoryUXDesign, TypeBackground),
	builtin("ux-beh-5", "How do you stay updated with UX trends?", CategoryUXDesign, TypeBackground),
	builtin("ux-tech-1", "What are the core principles of UX design?", CategoryUXDesign, TypeTechnical),
	builtin("ux-tech-2", "How do you ensure consistency across a product?", CategoryUXDesign, TypeTechnical),
	builtin("ux-sit-1", "Tell me about a time you disagreed with a stakeholder.", CategoryUXDesign, TypeSituational),
	builtin("ux-sit-2", "Describe a project where user feedback conflicted with business goals.", CategoryUXDesign, TypeSituational),

	builtin("eng-beh-1", "Can you describe your engineering background?", CategoryEngineering, TypeBackground),
	builtin("eng-beh-2", "What programming languages are you most comfortable with?", CategoryEngineering, TypeBackground),
	builtin("eng-tech-1", "Explain the concept of object-oriented programming.", CategoryEngineering, TypeTechnical),
	builtin("eng-tech-2", "What are RESTful APIs?", CategoryEngineering, TypeTechnical),
	builtin("eng-sit-1", "Describe a difficult bug you fixed.", CategoryEngineering, TypeSituational),

	builtin("da-beh-1", "Can you describe your experience as a data analyst?", CategoryDataAnalytics, TypeBackground),
	builtin("da-tech-1", "What is the difference between descriptive and predictive analytics?", CategoryDataAnalytics, TypeTechnical),
	builtin("da-sit-1", "Tell me about a time data changed a business decision.", CategoryDataAnalytics, TypeSituational),

	builtin("cs-beh-1", "Can you describe your cybersecurity background?", CategoryCybersecurity, TypeBackground),
	builtin("cs-tech-1", "What is the CIA triad?", CategoryCybersecurity, TypeTechnical),
	builtin("cs-sit-1", "Tell me about a security incident you handled.", CategoryCybersecurity, TypeSituational),
}
